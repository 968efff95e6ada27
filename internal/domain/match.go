package domain

import "time"

// MemberState is the tagged per-member state of the find-each-other
// exchange.
type MemberState string

const (
	MemberAwaitingSelection MemberState = "awaiting_selection"
	MemberCheckedIn         MemberState = "checked_in"
)

// Match is a group of 2..MaxGroupSize registrations for the same round,
// created atomically by the matching engine. A participant appears in at
// most one match per round.
type Match struct {
	ID             string        `json:"id"`
	RoundID        uint          `json:"round_id"`
	MeetingPointID uint          `json:"meeting_point_id"`
	Members        []MatchMember `json:"members"`
	CreatedAt      time.Time     `json:"created_at"`
}

type MatchMember struct {
	MatchID       string      `json:"match_id"`
	ParticipantID uint        `json:"participant_id"`
	Position      int         `json:"position"`
	MeetNumber    int         `json:"meet_number"`
	State         MemberState `json:"state"`
}

func (m *Match) HasMember(participantID uint) bool {
	for _, member := range m.Members {
		if member.ParticipantID == participantID {
			return true
		}
	}

	return false
}

// Partners returns every member except the given participant, in match
// order.
func (m *Match) Partners(participantID uint) []MatchMember {
	partners := make([]MatchMember, 0, len(m.Members))
	for _, member := range m.Members {
		if member.ParticipantID != participantID {
			partners = append(partners, member)
		}
	}

	return partners
}

func (m *Match) Member(participantID uint) (MatchMember, bool) {
	for _, member := range m.Members {
		if member.ParticipantID == participantID {
			return member, true
		}
	}

	return MatchMember{}, false
}

// AllCheckedIn reports whether every member has independently confirmed
// their partner's number.
func (m *Match) AllCheckedIn() bool {
	for _, member := range m.Members {
		if member.State != MemberCheckedIn {
			return false
		}
	}

	return len(m.Members) > 0
}

// PartnerNumbers returns the genuine meet numbers of the participant's
// partners. A selection is correct when it matches one of these.
func (m *Match) PartnerNumbers(participantID uint) []int {
	var numbers []int
	for _, member := range m.Members {
		if member.ParticipantID != participantID {
			numbers = append(numbers, member.MeetNumber)
		}
	}

	return numbers
}
