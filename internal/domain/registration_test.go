package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testRound(startsAt time.Time) Round {
	return Round{
		ID:                       1,
		SessionID:                1,
		StartsAt:                 startsAt,
		DurationMinutes:          30,
		ConfirmOpenOffsetMinutes: 10,
		TargetGroupSize:          2,
		MaxGroupSize:             3,
	}
}

func TestRound_ConfirmationOpen(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	round := testRound(start)

	assert.False(t, round.ConfirmationOpen(start.Add(-11*time.Minute)))
	assert.True(t, round.ConfirmationOpen(start.Add(-10*time.Minute)))
	assert.True(t, round.ConfirmationOpen(start.Add(-time.Second)))
	assert.False(t, round.ConfirmationOpen(start))
}

func TestRound_HasEnded(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	round := testRound(start)

	assert.False(t, round.HasEnded(start.Add(29*time.Minute)))
	assert.True(t, round.HasEnded(start.Add(30*time.Minute)))
}

func TestRegistration_EffectiveStatus(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	cancelled := start.Add(-time.Hour)

	tests := []struct {
		name      string
		stored    Status
		now       time.Time
		cancelled bool
		want      Status
	}{
		{
			name:   "registered before start stays registered",
			stored: StatusRegistered,
			now:    start.Add(-time.Minute),
			want:   StatusRegistered,
		},
		{
			name:   "registered at start becomes unconfirmed",
			stored: StatusRegistered,
			now:    start,
			want:   StatusUnconfirmed,
		},
		{
			name:   "registered after start becomes unconfirmed",
			stored: StatusRegistered,
			now:    start.Add(time.Hour),
			want:   StatusUnconfirmed,
		},
		{
			name:   "confirmed is unaffected by start",
			stored: StatusConfirmed,
			now:    start.Add(time.Minute),
			want:   StatusConfirmed,
		},
		{
			name:   "met before round end stays met",
			stored: StatusMet,
			now:    start.Add(29 * time.Minute),
			want:   StatusMet,
		},
		{
			name:   "met at round end becomes completed",
			stored: StatusMet,
			now:    start.Add(30 * time.Minute),
			want:   StatusCompleted,
		},
		{
			name:      "cancelled round overrides live status",
			stored:    StatusMatched,
			now:       start,
			cancelled: true,
			want:      StatusCancelled,
		},
		{
			name:      "terminal status survives round cancellation",
			stored:    StatusCompleted,
			now:       start,
			cancelled: true,
			want:      StatusCompleted,
		},
		{
			name:   "cancelled registration stays cancelled",
			stored: StatusCancelled,
			now:    start.Add(time.Hour),
			want:   StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round := testRound(start)
			if tt.cancelled {
				round.CancelledAt = &cancelled
			}

			registration := Registration{Status: tt.stored}

			got := registration.EffectiveStatus(&round, tt.now)
			assert.Equal(t, tt.want, got)

			// Pure: repeated evaluation with the same inputs agrees and
			// the stored record is untouched.
			assert.Equal(t, got, registration.EffectiveStatus(&round, tt.now))
			assert.Equal(t, tt.stored, registration.Status)
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusUnconfirmed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	for _, s := range []Status{StatusRegistered, StatusConfirmed, StatusMatched, StatusWalking, StatusWaiting, StatusCheckedIn, StatusMet} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}
