package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateRoundRequest struct {
	SessionID                uint      `json:"session_id" binding:"required"`
	Title                    string    `json:"title" binding:"required"`
	StartsAt                 time.Time `json:"starts_at" binding:"required"`
	DurationMinutes          int       `json:"duration_minutes" binding:"required"`
	ConfirmOpenOffsetMinutes int       `json:"confirm_open_offset_minutes"`
	TargetGroupSize          int       `json:"target_group_size" binding:"required"`
	MaxGroupSize             int       `json:"max_group_size" binding:"required"`
	AllowOverflowMatching    bool      `json:"allow_overflow_matching"`
}

func (req *CreateRoundRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.SessionID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.StartsAt, validation.Required),
		validation.Field(&req.DurationMinutes, validation.Required, validation.Min(1), validation.Max(24*60)),
		validation.Field(&req.ConfirmOpenOffsetMinutes, validation.Min(0), validation.Max(24*60)),
		// Meet numbers are two digits, so a group can never need more
		// than a fraction of that pool.
		validation.Field(&req.TargetGroupSize, validation.Required, validation.Min(2), validation.Max(20)),
		validation.Field(&req.MaxGroupSize, validation.Required, validation.Min(2), validation.Max(20)),
	)
}
