package response

import "github.com/roundmeet/roundmeet-api/internal/domain"

type SweepResponse struct {
	RoundID uint `json:"round_id"`
	Updated int  `json:"updated"`
}

type StatusResponse struct {
	Registration domain.Registration `json:"registration"`
	NoMatchFound bool                `json:"no_match_found,omitempty"`
}

type SelectNumberResponse struct {
	Result   string `json:"result"` // "checked_in" or "retry"
	MatchMet bool   `json:"match_met,omitempty"`
}

type NumberOptionsResponse struct {
	MatchID string `json:"match_id"`
	Options []int  `json:"options"`
}
