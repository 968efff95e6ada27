package dao

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not construct docker pool: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("could not connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=roundmeet_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	dsn := fmt.Sprintf("host=localhost port=%v user=postgres password=secret dbname=roundmeet_test sslmode=disable", resource.GetPort("5432/tcp"))

	pool.MaxWait = 2 * time.Minute
	if err = pool.Retry(func() error {
		gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}

		testDB = gormDB
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}

		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Fatalf("could not purge resource: %v", err)
	}

	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
}

func seedRound(t *testing.T, startsAt time.Time) Round {
	t.Helper()

	round, err := NewRoundDAO(testDB).Insert(context.Background(), Round{
		SessionID:       1,
		Title:           "first round",
		StartsAt:        startsAt,
		DurationMinutes: 30,
		TargetGroupSize: 2,
		MaxGroupSize:    3,
	})
	require.NoError(t, err)

	return round
}

func seedRegistration(t *testing.T, roundID, participantID uint, status string) Registration {
	t.Helper()

	registration, err := NewRegistrationDAO(testDB).Insert(context.Background(), Registration{
		SessionID:     1,
		RoundID:       roundID,
		ParticipantID: participantID,
		Status:        status,
		RegisteredAt:  time.Now(),
	})
	require.NoError(t, err)

	return registration
}

func TestUserDAO_UniqueEmail(t *testing.T) {
	requireDB(t)

	userDAO := NewUserDAO(testDB)
	ctx := context.Background()

	created, err := userDAO.Insert(ctx, User{Email: "dup@example.com", Password: "x", Role: "participant", Name: "Dup"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = userDAO.Insert(ctx, User{Email: "dup@example.com", Password: "y", Role: "participant", Name: "Dup Again"})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestRegistrationDAO_UniquePerRound(t *testing.T) {
	requireDB(t)

	round := seedRound(t, time.Now().Add(time.Hour))
	seedRegistration(t, round.ID, 201, "registered")

	_, err := NewRegistrationDAO(testDB).Insert(context.Background(), Registration{
		SessionID:     1,
		RoundID:       round.ID,
		ParticipantID: 201,
		Status:        "registered",
		RegisteredAt:  time.Now(),
	})
	assert.ErrorIs(t, err, ErrRegistrationExists)
}

func TestRegistrationDAO_ConfirmOnlyFromRegistered(t *testing.T) {
	requireDB(t)

	registrationDAO := NewRegistrationDAO(testDB)
	ctx := context.Background()
	round := seedRound(t, time.Now().Add(time.Hour))

	registration := seedRegistration(t, round.ID, 202, "registered")

	confirmedAt := time.Now()
	confirmed, err := registrationDAO.Confirm(ctx, registration.ID, confirmedAt)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// A second confirm leaves the first timestamp in place.
	again, err := registrationDAO.Confirm(ctx, registration.ID, confirmedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "confirmed", again.Status)
	assert.WithinDuration(t, *confirmed.ConfirmedAt, *again.ConfirmedAt, time.Second)
}

func TestRegistrationDAO_UpdateStatusGuard(t *testing.T) {
	requireDB(t)

	registrationDAO := NewRegistrationDAO(testDB)
	ctx := context.Background()
	round := seedRound(t, time.Now().Add(time.Hour))

	registration := seedRegistration(t, round.ID, 203, "matched")

	ok, err := registrationDAO.UpdateStatus(ctx, registration.ID, "matched", "walking_to_meeting_point")
	require.NoError(t, err)
	assert.True(t, ok)

	// Wrong from-status affects zero rows.
	ok, err = registrationDAO.UpdateStatus(ctx, registration.ID, "matched", "walking_to_meeting_point")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchDAO_PersistAssignmentsOnce(t *testing.T) {
	requireDB(t)

	matchDAO := NewMatchDAO(testDB)
	registrationDAO := NewRegistrationDAO(testDB)
	ctx := context.Background()

	round := seedRound(t, time.Now().Add(time.Hour))
	first := seedRegistration(t, round.ID, 301, "confirmed")
	second := seedRegistration(t, round.ID, 302, "confirmed")

	assignment := MatchAssignment{
		Match: Match{ID: "match-dao-1", RoundID: round.ID, MeetingPointID: 1, CreatedAt: time.Now()},
		Members: []MatchMember{
			{MatchID: "match-dao-1", ParticipantID: 301, Position: 0, MeetNumber: 42, State: "awaiting_selection"},
			{MatchID: "match-dao-1", ParticipantID: 302, Position: 1, MeetNumber: 17, State: "awaiting_selection"},
		},
		RegistrationIDs: []uint{first.ID, second.ID},
	}

	require.NoError(t, matchDAO.PersistAssignments(ctx, round.ID, time.Now(), []MatchAssignment{assignment}))

	// Registrations moved to matched and point at the match.
	updated, err := registrationDAO.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "matched", updated.Status)
	require.NotNil(t, updated.MatchID)
	assert.Equal(t, "match-dao-1", *updated.MatchID)
	assert.Equal(t, 42, updated.MeetNumber)

	// The round is matched exactly once.
	err = matchDAO.PersistAssignments(ctx, round.ID, time.Now(), []MatchAssignment{assignment})
	assert.ErrorIs(t, err, ErrRoundAlreadyMatched)
}

func TestMatchDAO_SetMet(t *testing.T) {
	requireDB(t)

	matchDAO := NewMatchDAO(testDB)
	ctx := context.Background()

	round := seedRound(t, time.Now().Add(time.Hour))
	first := seedRegistration(t, round.ID, 401, "confirmed")
	second := seedRegistration(t, round.ID, 402, "confirmed")

	assignment := MatchAssignment{
		Match: Match{ID: "match-dao-2", RoundID: round.ID, MeetingPointID: 1, CreatedAt: time.Now()},
		Members: []MatchMember{
			{MatchID: "match-dao-2", ParticipantID: 401, Position: 0, MeetNumber: 10, State: "awaiting_selection"},
			{MatchID: "match-dao-2", ParticipantID: 402, Position: 1, MeetNumber: 11, State: "awaiting_selection"},
		},
		RegistrationIDs: []uint{first.ID, second.ID},
	}
	require.NoError(t, matchDAO.PersistAssignments(ctx, round.ID, time.Now(), []MatchAssignment{assignment}))

	require.NoError(t, matchDAO.SetMemberCheckedIn(ctx, "match-dao-2", 401))

	met, err := matchDAO.SetMet(ctx, "match-dao-2")
	require.NoError(t, err)
	assert.False(t, met, "one member still pending")

	require.NoError(t, matchDAO.SetMemberCheckedIn(ctx, "match-dao-2", 402))

	met, err = matchDAO.SetMet(ctx, "match-dao-2")
	require.NoError(t, err)
	assert.True(t, met)
}

func TestRoundDAO_CancelSkipsTerminal(t *testing.T) {
	requireDB(t)

	roundDAO := NewRoundDAO(testDB)
	registrationDAO := NewRegistrationDAO(testDB)
	ctx := context.Background()

	round := seedRound(t, time.Now().Add(time.Hour))
	live := seedRegistration(t, round.ID, 501, "confirmed")
	done := seedRegistration(t, round.ID, 502, "completed")

	err := roundDAO.Cancel(ctx, round.ID, time.Now(), []string{"unconfirmed", "completed", "cancelled"})
	require.NoError(t, err)

	cancelled, err := roundDAO.FindByID(ctx, round.ID)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	updated, err := registrationDAO.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", updated.Status)

	kept, err := registrationDAO.FindByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", kept.Status)
}

func TestContactDAO_SingleShot(t *testing.T) {
	requireDB(t)

	contactDAO := NewContactDAO(testDB)
	ctx := context.Background()

	decision, err := contactDAO.Insert(ctx, ContactDecision{
		MatchID:   "match-dao-3",
		DeciderID: 601,
		PartnerID: 602,
		Share:     true,
		DecidedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotZero(t, decision.ID)

	_, err = contactDAO.Insert(ctx, ContactDecision{
		MatchID:   "match-dao-3",
		DeciderID: 601,
		PartnerID: 602,
		Share:     false,
		DecidedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDecisionExists)

	// The reverse direction is a different pair and goes through.
	_, err = contactDAO.Insert(ctx, ContactDecision{
		MatchID:   "match-dao-3",
		DeciderID: 602,
		PartnerID: 601,
		Share:     true,
		DecidedAt: time.Now(),
	})
	assert.NoError(t, err)

	theirs, found, err := contactDAO.FindPair(ctx, "match-dao-3", 602, 601)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, theirs.Share)
}
