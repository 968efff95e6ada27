package domain

import "time"

// ContactDecision is one member's committed share/no-share choice for
// one partner in a match, with optional feedback tags. A decision is a
// single atomic commit; it is never revised afterwards.
type ContactDecision struct {
	ID           uint      `json:"id"`
	MatchID      string    `json:"match_id"`
	DeciderID    uint      `json:"decider_id"`
	PartnerID    uint      `json:"partner_id"`
	Share        bool      `json:"share"`
	FeedbackTags []string  `json:"feedback_tags,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

// SharedContact is a partner whose details became visible through the
// mutual-consent-plus-delay rule.
type SharedContact struct {
	Partner  User      `json:"partner"`
	MatchID  string    `json:"match_id"`
	SharedAt time.Time `json:"shared_at"`
}

// FeedbackEntry is a one-directional reaction; it has no mutuality
// requirement and no reveal delay.
type FeedbackEntry struct {
	MatchID string    `json:"match_id"`
	FromID  uint      `json:"from_id"`
	Tags    []string  `json:"tags"`
	GivenAt time.Time `json:"given_at"`
}

// MutualShare reports whether both sides of a pair opted in.
func MutualShare(mine, theirs *ContactDecision) bool {
	return mine != nil && theirs != nil && mine.Share && theirs.Share
}

// RevealAt returns the instant a mutually shared contact becomes
// visible: the configured delay counted from the later of the two
// submissions.
func RevealAt(mine, theirs *ContactDecision, delay time.Duration) time.Time {
	later := mine.DecidedAt
	if theirs.DecidedAt.After(later) {
		later = theirs.DecidedAt
	}

	return later.Add(delay)
}
