package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

type noopNotifier struct{}

func (n *noopNotifier) StatusChanged(participantID, roundID uint, from, to domain.Status) {}

type fakeRoundStore struct {
	rounds map[uint]domain.Round
}

func (f *fakeRoundStore) FindByID(_ context.Context, id uint) (domain.Round, error) {
	round, ok := f.rounds[id]
	if !ok {
		return domain.Round{}, repository.ErrRoundNotFound
	}

	return round, nil
}

func (f *fakeRoundStore) Create(_ context.Context, round domain.Round) (domain.Round, error) {
	round.ID = uint(len(f.rounds) + 1)
	f.rounds[round.ID] = round

	return round, nil
}

func (f *fakeRoundStore) FindBySessionID(_ context.Context, sessionID uint) ([]domain.Round, error) {
	var rounds []domain.Round
	for _, round := range f.rounds {
		if round.SessionID == sessionID {
			rounds = append(rounds, round)
		}
	}

	return rounds, nil
}

func (f *fakeRoundStore) Cancel(_ context.Context, roundID uint, cancelledAt time.Time) error {
	round, ok := f.rounds[roundID]
	if !ok {
		return repository.ErrRoundNotFound
	}

	round.CancelledAt = &cancelledAt
	f.rounds[roundID] = round

	return nil
}

type fakePointStore struct {
	points []domain.MeetingPoint
}

func (f *fakePointStore) FindMeetingPoints(_ context.Context, _ uint) ([]domain.MeetingPoint, error) {
	return f.points, nil
}

type fakeRegistrationReader struct {
	registrations []domain.Registration
}

func (f *fakeRegistrationReader) FindByRoundID(_ context.Context, _ uint) ([]domain.Registration, error) {
	return f.registrations, nil
}

type fakeMatchStore struct {
	created        []domain.Match
	alreadyMatched bool
	createCalls    int
}

func (f *fakeMatchStore) CreateMatches(_ context.Context, _ uint, _ time.Time, matches []domain.Match, _ map[string][]uint) error {
	f.createCalls++
	if f.alreadyMatched {
		return repository.ErrRoundAlreadyMatched
	}

	f.created = matches
	f.alreadyMatched = true

	return nil
}

func (f *fakeMatchStore) FindByRoundID(_ context.Context, _ uint) ([]domain.Match, error) {
	return f.created, nil
}

func confirmedPool(n int) []domain.Registration {
	registrations := make([]domain.Registration, 0, n)
	for i := 1; i <= n; i++ {
		registrations = append(registrations, domain.Registration{
			ID:            uint(i),
			RoundID:       1,
			ParticipantID: uint(100 + i),
			Status:        domain.StatusConfirmed,
		})
	}

	return registrations
}

func newMatchingFixture(round domain.Round, pool []domain.Registration, points int) (*MatchingService, *fakeMatchStore) {
	meetingPoints := make([]domain.MeetingPoint, 0, points)
	for i := 1; i <= points; i++ {
		meetingPoints = append(meetingPoints, domain.MeetingPoint{ID: uint(i), SessionID: round.SessionID})
	}

	matches := &fakeMatchStore{}
	svc := NewMatchingService(
		&fakeRoundStore{rounds: map[uint]domain.Round{round.ID: round}},
		&fakePointStore{points: meetingPoints},
		&fakeRegistrationReader{registrations: pool},
		matches,
		&noopNotifier{},
		rand.New(rand.NewSource(1)),
	)

	return svc, matches
}

func matchingRound(target, max int, overflow bool) domain.Round {
	return domain.Round{
		ID:                    1,
		SessionID:             1,
		StartsAt:              time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
		DurationMinutes:       30,
		TargetGroupSize:       target,
		MaxGroupSize:          max,
		AllowOverflowMatching: overflow,
	}
}

func memberParticipants(matches []domain.Match) map[uint]int {
	seen := make(map[uint]int)
	for _, match := range matches {
		for _, member := range match.Members {
			seen[member.ParticipantID]++
		}
	}

	return seen
}

func TestRunMatching_ExactTargetGroups(t *testing.T) {
	round := matchingRound(2, 3, false)
	svc, store := newMatchingFixture(round, confirmedPool(4), 2)

	now := round.StartsAt
	result, err := svc.RunMatching(context.Background(), round.ID, now)
	require.NoError(t, err)

	assert.False(t, result.AlreadyMatched)
	assert.Empty(t, result.UnmatchedParticipantIDs)
	require.Len(t, result.Matches, 2)

	seen := memberParticipants(result.Matches)
	assert.Len(t, seen, 4, "every participant matched")
	for id, count := range seen {
		assert.Equal(t, 1, count, "participant %d appears once", id)
	}

	// Meeting points rotate across matches.
	assert.Equal(t, uint(1), result.Matches[0].MeetingPointID)
	assert.Equal(t, uint(2), result.Matches[1].MeetingPointID)

	for _, match := range result.Matches {
		assert.Len(t, match.Members, 2)

		numbers := make(map[int]bool)
		for _, member := range match.Members {
			assert.GreaterOrEqual(t, member.MeetNumber, 10)
			assert.LessOrEqual(t, member.MeetNumber, 99)
			assert.False(t, numbers[member.MeetNumber], "meet numbers distinct within a match")
			numbers[member.MeetNumber] = true
			assert.Equal(t, domain.MemberAwaitingSelection, member.State)
		}
	}

	assert.Equal(t, 1, store.createCalls)
}

func TestRunMatching_OverflowAbsorbsRemainder(t *testing.T) {
	round := matchingRound(2, 3, true)
	svc, _ := newMatchingFixture(round, confirmedPool(5), 1)

	result, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	assert.Empty(t, result.UnmatchedParticipantIDs)
	require.Len(t, result.Matches, 2)

	sizes := []int{len(result.Matches[0].Members), len(result.Matches[1].Members)}
	assert.ElementsMatch(t, []int{3, 2}, sizes)

	seen := memberParticipants(result.Matches)
	assert.Len(t, seen, 5, "overflow placement loses nobody")
	for id, count := range seen {
		assert.Equal(t, 1, count, "participant %d appears once", id)
	}
}

func TestRunMatching_RemainderPairFormsOwnGroup(t *testing.T) {
	round := matchingRound(3, 3, false)
	svc, _ := newMatchingFixture(round, confirmedPool(5), 1)

	result, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	assert.Empty(t, result.UnmatchedParticipantIDs)
	require.Len(t, result.Matches, 2)

	sizes := []int{len(result.Matches[0].Members), len(result.Matches[1].Members)}
	assert.ElementsMatch(t, []int{3, 2}, sizes)
}

func TestRunMatching_SingleLeftoverStaysUnmatched(t *testing.T) {
	// Max equals target, so overflow has nowhere to put the odd one out.
	round := matchingRound(2, 2, true)
	svc, _ := newMatchingFixture(round, confirmedPool(5), 1)

	result, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	require.Len(t, result.UnmatchedParticipantIDs, 1)

	seen := memberParticipants(result.Matches)
	assert.NotContains(t, seen, result.UnmatchedParticipantIDs[0])
}

func TestRunMatching_LonePairBelowTarget(t *testing.T) {
	round := matchingRound(4, 5, false)
	svc, _ := newMatchingFixture(round, confirmedPool(2), 1)

	result, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Len(t, result.Matches[0].Members, 2)
	assert.Empty(t, result.UnmatchedParticipantIDs)
}

func TestRunMatching_SecondRunIsNoOp(t *testing.T) {
	round := matchingRound(2, 3, false)
	svc, store := newMatchingFixture(round, confirmedPool(4), 2)

	first, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)
	require.Len(t, first.Matches, 2)

	// The store now refuses a second assignment, like the conditional
	// matched_at update does in Postgres.
	second, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	assert.True(t, second.AlreadyMatched)
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, 2, store.createCalls, "second run hit the guard, not a reshuffle")
}

func TestRunMatching_ReturnsExistingWhenRoundMatched(t *testing.T) {
	round := matchingRound(2, 3, false)
	matchedAt := round.StartsAt.Add(-time.Minute)
	round.MatchedAt = &matchedAt

	svc, store := newMatchingFixture(round, confirmedPool(4), 2)
	store.created = []domain.Match{{ID: "existing", RoundID: round.ID}}

	result, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)

	assert.True(t, result.AlreadyMatched)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "existing", result.Matches[0].ID)
	assert.Equal(t, 0, store.createCalls)
}

func TestRunMatching_CancelledRound(t *testing.T) {
	round := matchingRound(2, 3, false)
	cancelledAt := round.StartsAt.Add(-time.Hour)
	round.CancelledAt = &cancelledAt

	svc, _ := newMatchingFixture(round, confirmedPool(4), 2)

	_, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	assert.ErrorIs(t, err, ErrRoundCancelled)
}

func TestRunMatching_NoMeetingPoints(t *testing.T) {
	round := matchingRound(2, 3, false)
	svc, _ := newMatchingFixture(round, confirmedPool(4), 0)

	_, err := svc.RunMatching(context.Background(), round.ID, round.StartsAt)
	assert.ErrorIs(t, err, ErrNoMeetingPoints)
}

func TestListEligible_OnlyEffectivelyConfirmed(t *testing.T) {
	round := matchingRound(2, 3, false)
	pool := []domain.Registration{
		{ID: 1, RoundID: 1, ParticipantID: 101, Status: domain.StatusConfirmed},
		{ID: 2, RoundID: 1, ParticipantID: 102, Status: domain.StatusRegistered},
		{ID: 3, RoundID: 1, ParticipantID: 103, Status: domain.StatusCancelled},
	}

	svc, _ := newMatchingFixture(round, pool, 1)

	// After start the registered one is effectively unconfirmed.
	eligible, err := svc.ListEligible(context.Background(), round.ID, round.StartsAt)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, uint(101), eligible[0].ParticipantID)

	// Before start it is still registered, not confirmed.
	eligible, err = svc.ListEligible(context.Background(), round.ID, round.StartsAt.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, eligible, 1)
}
