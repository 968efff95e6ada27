package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

type fakeRegistrationStore struct {
	byID   map[uint]domain.Registration
	nextID uint
}

func newFakeRegistrationStore() *fakeRegistrationStore {
	return &fakeRegistrationStore{byID: make(map[uint]domain.Registration)}
}

func (f *fakeRegistrationStore) Create(_ context.Context, registration domain.Registration) (domain.Registration, error) {
	for _, existing := range f.byID {
		if existing.RoundID == registration.RoundID && existing.ParticipantID == registration.ParticipantID {
			return domain.Registration{}, repository.ErrRegistrationExists
		}
	}

	f.nextID++
	registration.ID = f.nextID
	f.byID[registration.ID] = registration

	return registration, nil
}

func (f *fakeRegistrationStore) FindByRoundAndParticipant(_ context.Context, roundID, participantID uint) (domain.Registration, error) {
	for _, registration := range f.byID {
		if registration.RoundID == roundID && registration.ParticipantID == participantID {
			return registration, nil
		}
	}

	return domain.Registration{}, repository.ErrRegistrationNotFound
}

func (f *fakeRegistrationStore) FindByParticipantID(_ context.Context, participantID uint) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, registration := range f.byID {
		if registration.ParticipantID == participantID {
			out = append(out, registration)
		}
	}

	return out, nil
}

func (f *fakeRegistrationStore) Confirm(_ context.Context, id uint, confirmedAt time.Time) (domain.Registration, error) {
	registration, ok := f.byID[id]
	if !ok {
		return domain.Registration{}, repository.ErrRegistrationNotFound
	}

	if registration.Status == domain.StatusRegistered {
		registration.Status = domain.StatusConfirmed
		registration.ConfirmedAt = &confirmedAt
		f.byID[id] = registration
	}

	return registration, nil
}

type fakeMatchReader struct {
	matches map[string]domain.Match
}

func (f *fakeMatchReader) FindByID(_ context.Context, id string) (domain.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return domain.Match{}, repository.ErrMatchNotFound
	}

	return match, nil
}

func newRegistrationFixture(round domain.Round) (*RegistrationService, *fakeRegistrationStore) {
	store := newFakeRegistrationStore()
	svc := NewRegistrationService(
		&fakeRoundStore{rounds: map[uint]domain.Round{round.ID: round}},
		store,
		&fakeMatchReader{matches: map[string]domain.Match{}},
		&noopNotifier{},
	)

	return svc, store
}

func lifecycleRound() domain.Round {
	return domain.Round{
		ID:                       1,
		SessionID:                1,
		StartsAt:                 time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
		DurationMinutes:          30,
		ConfirmOpenOffsetMinutes: 10,
		TargetGroupSize:          2,
		MaxGroupSize:             3,
	}
}

func TestRegister(t *testing.T) {
	round := lifecycleRound()
	svc, _ := newRegistrationFixture(round)

	now := round.StartsAt.Add(-time.Hour)
	registration, err := svc.Register(context.Background(), round.ID, 101, now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRegistered, registration.Status)
	assert.Equal(t, now, registration.RegisteredAt)
	assert.Equal(t, round.SessionID, registration.SessionID)

	// One registration per participant per round.
	_, err = svc.Register(context.Background(), round.ID, 101, now)
	assert.ErrorIs(t, err, ErrRegistrationExists)
}

func TestRegister_ClosedAfterStart(t *testing.T) {
	round := lifecycleRound()
	svc, _ := newRegistrationFixture(round)

	_, err := svc.Register(context.Background(), round.ID, 101, round.StartsAt)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegister_CancelledRound(t *testing.T) {
	round := lifecycleRound()
	cancelledAt := round.StartsAt.Add(-2 * time.Hour)
	round.CancelledAt = &cancelledAt
	svc, _ := newRegistrationFixture(round)

	_, err := svc.Register(context.Background(), round.ID, 101, round.StartsAt.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrRoundCancelled)
}

func TestConfirm_WindowBounds(t *testing.T) {
	round := lifecycleRound()
	svc, _ := newRegistrationFixture(round)

	registeredAt := round.StartsAt.Add(-time.Hour)
	_, err := svc.Register(context.Background(), round.ID, 101, registeredAt)
	require.NoError(t, err)

	// Too early: the window opens 10 minutes before start.
	_, err = svc.Confirm(context.Background(), round.ID, 101, round.StartsAt.Add(-11*time.Minute))
	assert.ErrorIs(t, err, ErrConfirmationClosed)

	// Too late: the deadline is round start.
	_, err = svc.Confirm(context.Background(), round.ID, 101, round.StartsAt)
	assert.ErrorIs(t, err, ErrConfirmationClosed)

	confirmedAt := round.StartsAt.Add(-5 * time.Minute)
	confirmed, err := svc.Confirm(context.Background(), round.ID, 101, confirmedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, confirmedAt, *confirmed.ConfirmedAt)

	// Confirming twice is harmless.
	again, err := svc.Confirm(context.Background(), round.ID, 101, round.StartsAt.Add(-4*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, confirmedAt, *again.ConfirmedAt)
}

func TestGetEffectiveStatus_FillsPartners(t *testing.T) {
	round := lifecycleRound()
	store := newFakeRegistrationStore()
	matchID := "match-1"

	matches := &fakeMatchReader{matches: map[string]domain.Match{
		matchID: {
			ID:      matchID,
			RoundID: round.ID,
			Members: []domain.MatchMember{
				{MatchID: matchID, ParticipantID: 101},
				{MatchID: matchID, ParticipantID: 102},
				{MatchID: matchID, ParticipantID: 103},
			},
		},
	}}

	store.byID[1] = domain.Registration{
		ID:            1,
		RoundID:       round.ID,
		ParticipantID: 101,
		Status:        domain.StatusMatched,
		MatchID:       &matchID,
	}

	svc := NewRegistrationService(
		&fakeRoundStore{rounds: map[uint]domain.Round{round.ID: round}},
		store,
		matches,
		&noopNotifier{},
	)

	registration, err := svc.GetEffectiveStatus(context.Background(), round.ID, 101, round.StartsAt)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusMatched, registration.Status)
	assert.ElementsMatch(t, []uint{102, 103}, registration.PartnerIDs)
}

type fakeSessionStore struct {
	sessions map[uint]domain.Session
}

func (f *fakeSessionStore) Create(_ context.Context, session domain.Session) (domain.Session, error) {
	f.sessions[session.ID] = session

	return session, nil
}

func (f *fakeSessionStore) FindByID(_ context.Context, id uint) (domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, repository.ErrSessionNotFound
	}

	return session, nil
}

func (f *fakeSessionStore) FindByOrganizerID(_ context.Context, organizerID uint) ([]domain.Session, error) {
	var out []domain.Session
	for _, session := range f.sessions {
		if session.OrganizerID == organizerID {
			out = append(out, session)
		}
	}

	return out, nil
}

func (f *fakeSessionStore) CreateMeetingPoint(_ context.Context, point domain.MeetingPoint) (domain.MeetingPoint, error) {
	return point, nil
}

func (f *fakeSessionStore) FindMeetingPoints(_ context.Context, _ uint) ([]domain.MeetingPoint, error) {
	return nil, nil
}

func (f *fakeSessionStore) DeleteMeetingPoint(_ context.Context, _, _ uint) error {
	return nil
}

type fakeSweepStore struct {
	registrations []domain.Registration
	writes        int
}

func (f *fakeSweepStore) FindByRoundID(_ context.Context, _ uint) ([]domain.Registration, error) {
	return f.registrations, nil
}

func (f *fakeSweepStore) UpdateStatuses(_ context.Context, statusByID map[uint]domain.Status) error {
	f.writes++
	for i := range f.registrations {
		if status, ok := statusByID[f.registrations[i].ID]; ok {
			f.registrations[i].Status = status
		}
	}

	return nil
}

func TestSweepStatuses(t *testing.T) {
	round := lifecycleRound()
	sweep := &fakeSweepStore{registrations: []domain.Registration{
		{ID: 1, RoundID: round.ID, ParticipantID: 101, Status: domain.StatusRegistered},
		{ID: 2, RoundID: round.ID, ParticipantID: 102, Status: domain.StatusConfirmed},
		{ID: 3, RoundID: round.ID, ParticipantID: 103, Status: domain.StatusMet},
	}}

	svc := NewRoundService(
		&fakeRoundStore{rounds: map[uint]domain.Round{round.ID: round}},
		&fakeSessionStore{sessions: map[uint]domain.Session{}},
		sweep,
		&noopNotifier{},
	)

	// Past round end: registered lapses to unconfirmed, met completes,
	// confirmed is left alone.
	now := round.StartsAt.Add(30 * time.Minute)
	updated, err := svc.SweepStatuses(context.Background(), round.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, domain.StatusUnconfirmed, sweep.registrations[0].Status)
	assert.Equal(t, domain.StatusConfirmed, sweep.registrations[1].Status)
	assert.Equal(t, domain.StatusCompleted, sweep.registrations[2].Status)

	// Idempotent: a second pass at the same instant writes nothing.
	updated, err = svc.SweepStatuses(context.Background(), round.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 1, sweep.writes)
}

func TestCreateRound_GroupSizeBounds(t *testing.T) {
	svc := NewRoundService(
		&fakeRoundStore{rounds: map[uint]domain.Round{}},
		&fakeSessionStore{sessions: map[uint]domain.Session{
			1: {ID: 1, OrganizerID: 9},
		}},
		&fakeSweepStore{},
		&noopNotifier{},
	)

	round := lifecycleRound()
	round.ID = 0
	round.MaxGroupSize = 95
	_, err := svc.CreateRound(context.Background(), round, 9)
	assert.ErrorIs(t, err, ErrInvalidGroupSize)

	round.MaxGroupSize = 3
	created, err := svc.CreateRound(context.Background(), round, 9)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestCancelRound(t *testing.T) {
	round := lifecycleRound()
	store := &fakeRoundStore{rounds: map[uint]domain.Round{round.ID: round}}
	svc := NewRoundService(
		store,
		&fakeSessionStore{sessions: map[uint]domain.Session{
			round.SessionID: {ID: round.SessionID, OrganizerID: 9},
		}},
		&fakeSweepStore{},
		&noopNotifier{},
	)

	now := round.StartsAt.Add(-time.Hour)
	err := svc.CancelRound(context.Background(), round.ID, 8, now)
	assert.ErrorIs(t, err, ErrNotSessionOrganizer)
	assert.Nil(t, store.rounds[round.ID].CancelledAt)

	require.NoError(t, svc.CancelRound(context.Background(), round.ID, 9, now))
	cancelled := store.rounds[round.ID]
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, now, *cancelled.CancelledAt)
}
