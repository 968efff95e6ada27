package domain

import "time"

// Session is an organizer-owned event. It owns the meeting point pool
// and the scheduled rounds.
type Session struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	OrganizerID uint      `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MeetingPoint is an organizer-defined physical location scoped to a
// session. The matching engine only consumes these.
type MeetingPoint struct {
	ID        uint      `json:"id"`
	SessionID uint      `json:"session_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
