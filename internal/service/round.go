package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

var (
	ErrRoundNotFound    = repository.ErrRoundNotFound
	ErrInvalidGroupSize = errors.New("invalid group size configuration")
)

// maxGroupSizeLimit bounds groups well below the 90 available two-digit
// meet numbers.
const maxGroupSizeLimit = 20

type RoundRepository interface {
	Create(ctx context.Context, round domain.Round) (domain.Round, error)
	FindByID(ctx context.Context, id uint) (domain.Round, error)
	FindBySessionID(ctx context.Context, sessionID uint) ([]domain.Round, error)
	Cancel(ctx context.Context, roundID uint, cancelledAt time.Time) error
}

// SweepRegistrationRepository is the bulk status surface of the
// registration store; only the sweep writes through it.
type SweepRegistrationRepository interface {
	FindByRoundID(ctx context.Context, roundID uint) ([]domain.Registration, error)
	UpdateStatuses(ctx context.Context, statusByID map[uint]domain.Status) error
}

type RoundService struct {
	repo          RoundRepository
	sessions      SessionRepository
	registrations SweepRegistrationRepository
	notifier      Notifier
}

func NewRoundService(repo RoundRepository, sessions SessionRepository, registrations SweepRegistrationRepository, notifier Notifier) *RoundService {
	return &RoundService{
		repo:          repo,
		sessions:      sessions,
		registrations: registrations,
		notifier:      notifier,
	}
}

func (s *RoundService) CreateRound(ctx context.Context, round domain.Round, organizerID uint) (domain.Round, error) {
	if err := s.requireOrganizer(ctx, round.SessionID, organizerID); err != nil {
		return domain.Round{}, err
	}

	// The minimum viable group is a pair; the ceiling keeps the
	// two-digit meet number pool from running dry.
	if round.TargetGroupSize < 2 || round.MaxGroupSize < round.TargetGroupSize || round.MaxGroupSize > maxGroupSizeLimit {
		return domain.Round{}, ErrInvalidGroupSize
	}

	created, err := s.repo.Create(ctx, round)
	if err != nil {
		return domain.Round{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *RoundService) GetRound(ctx context.Context, id uint) (domain.Round, error) {
	round, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Round{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return round, nil
}

func (s *RoundService) GetRoundsBySession(ctx context.Context, sessionID uint) ([]domain.Round, error) {
	rounds, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindBySessionID -> %w", err)
	}

	return rounds, nil
}

// CancelRound marks the round cancelled; every non-terminal registration
// becomes cancelled with it.
func (s *RoundService) CancelRound(ctx context.Context, roundID, organizerID uint, now time.Time) error {
	round, err := s.repo.FindByID(ctx, roundID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = s.requireOrganizer(ctx, round.SessionID, organizerID); err != nil {
		return err
	}

	if err = s.repo.Cancel(ctx, roundID, now); err != nil {
		return fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	return nil
}

// SweepStatuses persists the effective status of every registration in a
// round whose stored value lags behind. Reads stay correct without the
// sweep; it exists so the stored records catch up and notifications fire.
// Idempotent: a second sweep at the same instant writes nothing.
func (s *RoundService) SweepStatuses(ctx context.Context, roundID uint, now time.Time) (int, error) {
	round, err := s.repo.FindByID(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	registrations, err := s.registrations.FindByRoundID(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("s.registrations.FindByRoundID -> %w", err)
	}

	updates := make(map[uint]domain.Status)
	transitions := make(map[uint][2]domain.Status)
	for _, registration := range registrations {
		effective := registration.EffectiveStatus(&round, now)
		if effective != registration.Status {
			updates[registration.ID] = effective
			transitions[registration.ParticipantID] = [2]domain.Status{registration.Status, effective}
		}
	}

	if len(updates) == 0 {
		return 0, nil
	}

	if err = s.registrations.UpdateStatuses(ctx, updates); err != nil {
		return 0, fmt.Errorf("s.registrations.UpdateStatuses -> %w", err)
	}

	for participantID, transition := range transitions {
		go s.notifier.StatusChanged(participantID, roundID, transition[0], transition[1])
	}

	return len(updates), nil
}

func (s *RoundService) requireOrganizer(ctx context.Context, sessionID, organizerID uint) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("s.sessions.FindByID -> %w", err)
	}

	if session.OrganizerID != organizerID {
		return ErrNotSessionOrganizer
	}

	return nil
}
