package domain

import "time"

// Round is a scheduled time slot within a session in which confirmed
// participants are matched into groups.
type Round struct {
	ID        uint   `json:"id"`
	SessionID uint   `json:"session_id"`
	Title     string `json:"title"`

	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`

	// ConfirmOpenOffsetMinutes is how long before StartsAt the
	// confirmation window opens (the "T-zero" offset).
	ConfirmOpenOffsetMinutes int `json:"confirm_open_offset_minutes"`

	TargetGroupSize       int  `json:"target_group_size"`
	MaxGroupSize          int  `json:"max_group_size"`
	AllowOverflowMatching bool `json:"allow_overflow_matching"`

	MatchedAt   *time.Time `json:"matched_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Round) EndsAt() time.Time {
	return r.StartsAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

func (r *Round) ConfirmationOpensAt() time.Time {
	return r.StartsAt.Add(-time.Duration(r.ConfirmOpenOffsetMinutes) * time.Minute)
}

// ConfirmationOpen reports whether a participant may still confirm.
// The confirmation deadline is round start.
func (r *Round) ConfirmationOpen(now time.Time) bool {
	return !now.Before(r.ConfirmationOpensAt()) && now.Before(r.StartsAt)
}

func (r *Round) HasStarted(now time.Time) bool {
	return !now.Before(r.StartsAt)
}

func (r *Round) HasEnded(now time.Time) bool {
	return !now.Before(r.EndsAt())
}

func (r *Round) IsMatched() bool {
	return r.MatchedAt != nil
}

func (r *Round) IsCancelled() bool {
	return r.CancelledAt != nil
}
