package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMutualShare(t *testing.T) {
	yes := &ContactDecision{Share: true}
	no := &ContactDecision{Share: false}

	assert.True(t, MutualShare(yes, yes))
	assert.False(t, MutualShare(yes, no))
	assert.False(t, MutualShare(no, yes))
	assert.False(t, MutualShare(yes, nil))
	assert.False(t, MutualShare(nil, yes))
}

func TestRevealAt_CountsFromLaterSubmission(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 18, 40, 0, 0, time.UTC)
	mine := &ContactDecision{Share: true, DecidedAt: t0}
	theirs := &ContactDecision{Share: true, DecidedAt: t0.Add(2 * time.Minute)}

	revealAt := RevealAt(mine, theirs, 15*time.Minute)
	assert.Equal(t, t0.Add(17*time.Minute), revealAt)

	// Order of arguments does not matter.
	assert.Equal(t, revealAt, RevealAt(theirs, mine, 15*time.Minute))
}

func TestMatch_PartnerNumbers(t *testing.T) {
	match := Match{
		ID: "m1",
		Members: []MatchMember{
			{ParticipantID: 1, MeetNumber: 42},
			{ParticipantID: 2, MeetNumber: 17},
			{ParticipantID: 3, MeetNumber: 88},
		},
	}

	assert.ElementsMatch(t, []int{17, 88}, match.PartnerNumbers(1))
	assert.ElementsMatch(t, []int{42, 88}, match.PartnerNumbers(2))
}

func TestMatch_AllCheckedIn(t *testing.T) {
	match := Match{
		Members: []MatchMember{
			{ParticipantID: 1, State: MemberCheckedIn},
			{ParticipantID: 2, State: MemberAwaitingSelection},
		},
	}
	assert.False(t, match.AllCheckedIn())

	match.Members[1].State = MemberCheckedIn
	assert.True(t, match.AllCheckedIn())

	empty := Match{}
	assert.False(t, empty.AllCheckedIn())
}
