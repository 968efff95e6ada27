package domain

import "time"

// Status is a registration's place in the round lifecycle.
type Status string

const (
	StatusRegistered  Status = "registered"
	StatusUnconfirmed Status = "unconfirmed"
	StatusConfirmed   Status = "confirmed"
	StatusMatched     Status = "matched"
	StatusWalking     Status = "walking_to_meeting_point"
	StatusWaiting     Status = "waiting_for_meet_confirmation"
	StatusCheckedIn   Status = "checked_in"
	StatusMet         Status = "met"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// IsTerminal reports whether no further transitions can happen.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusUnconfirmed, StatusCompleted, StatusCancelled:
		return true
	}

	return false
}

// Registration is one participant's relationship to one round.
type Registration struct {
	ID            uint `json:"id"`
	SessionID     uint `json:"session_id"`
	RoundID       uint `json:"round_id"`
	ParticipantID uint `json:"participant_id"`

	Status       Status     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`

	// MatchID, PartnerIDs and MeetingPointID are set together by the
	// matching engine and never mutated independently.
	MatchID        *string `json:"match_id,omitempty"`
	MeetingPointID *uint   `json:"meeting_point_id,omitempty"`
	PartnerIDs     []uint  `json:"partner_ids,omitempty"`

	// MeetNumber is the genuine numeric identifier partners must pick
	// during the find-each-other exchange.
	MeetNumber int `json:"meet_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveStatus computes the status a reader should see at the given
// instant. It is a pure function of the stored registration, the round
// timing and now; the persisted Status may lag behind until the next
// write. Callers supply now, a simulated clock included.
func (r *Registration) EffectiveStatus(round *Round, now time.Time) Status {
	if r.Status.IsTerminal() {
		return r.Status
	}

	if round.IsCancelled() {
		return StatusCancelled
	}

	switch r.Status {
	case StatusRegistered:
		if round.HasStarted(now) {
			return StatusUnconfirmed
		}
	case StatusMet:
		if round.HasEnded(now) {
			return StatusCompleted
		}
	}

	return r.Status
}
