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
	ErrRegistrationNotFound = repository.ErrRegistrationNotFound
	ErrRegistrationExists   = repository.ErrRegistrationExists
	ErrRoundCancelled       = errors.New("round is cancelled")
	ErrRegistrationClosed   = errors.New("round has already started")
	ErrConfirmationClosed   = errors.New("confirmation window is closed")
)

type RegistrationRoundRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Round, error)
}

// RegistrationRepository is the registration store surface this service
// may touch: creation, the participant-driven confirm, and reads. Bulk
// status writes belong to the sweep in RoundService; match assignment
// writes belong to the matching engine.
type RegistrationRepository interface {
	Create(ctx context.Context, registration domain.Registration) (domain.Registration, error)
	FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (domain.Registration, error)
	FindByParticipantID(ctx context.Context, participantID uint) ([]domain.Registration, error)
	Confirm(ctx context.Context, id uint, confirmedAt time.Time) (domain.Registration, error)
}

// MatchReader resolves partner IDs for matched registrations.
type MatchReader interface {
	FindByID(ctx context.Context, id string) (domain.Match, error)
}

type RegistrationService struct {
	rounds   RegistrationRoundRepository
	repo     RegistrationRepository
	matches  MatchReader
	notifier Notifier
}

func NewRegistrationService(rounds RegistrationRoundRepository, repo RegistrationRepository, matches MatchReader, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		rounds:   rounds,
		repo:     repo,
		matches:  matches,
		notifier: notifier,
	}
}

// Register signs a participant up for a round. Closed once the round has
// started or been cancelled.
func (s *RegistrationService) Register(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	if round.IsCancelled() {
		return domain.Registration{}, ErrRoundCancelled
	}

	if round.HasStarted(now) {
		return domain.Registration{}, ErrRegistrationClosed
	}

	created, err := s.repo.Create(ctx, domain.Registration{
		SessionID:     round.SessionID,
		RoundID:       roundID,
		ParticipantID: participantID,
		Status:        domain.StatusRegistered,
		RegisteredAt:  now,
	})
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// Confirm records the participant's explicit confirm action. This is the
// one participant-driven transition out of registered; the deadline is
// round start.
func (s *RegistrationService) Confirm(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	if round.IsCancelled() {
		return domain.Registration{}, ErrRoundCancelled
	}

	if !round.ConfirmationOpen(now) {
		return domain.Registration{}, ErrConfirmationClosed
	}

	registration, err := s.repo.FindByRoundAndParticipant(ctx, roundID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByRoundAndParticipant -> %w", err)
	}

	confirmed, err := s.repo.Confirm(ctx, registration.ID, now)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.Confirm -> %w", err)
	}

	if registration.Status == domain.StatusRegistered && confirmed.Status == domain.StatusConfirmed {
		go s.notifier.StatusChanged(participantID, roundID, domain.StatusRegistered, domain.StatusConfirmed)
	}

	return confirmed, nil
}

// GetEffectiveStatus reads one registration and reports its effective
// status at now, resolving partner IDs when matched. The stored record
// is never written here.
func (s *RegistrationService) GetEffectiveStatus(ctx context.Context, roundID, participantID uint, now time.Time) (domain.Registration, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	registration, err := s.repo.FindByRoundAndParticipant(ctx, roundID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByRoundAndParticipant -> %w", err)
	}

	registration.Status = registration.EffectiveStatus(&round, now)

	if err = s.fillPartners(ctx, &registration); err != nil {
		return domain.Registration{}, err
	}

	return registration, nil
}

// ListForParticipant returns every registration of a participant with
// effective statuses computed at now.
func (s *RegistrationService) ListForParticipant(ctx context.Context, participantID uint, now time.Time) ([]domain.Registration, error) {
	registrations, err := s.repo.FindByParticipantID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByParticipantID -> %w", err)
	}

	for i := range registrations {
		round, err := s.rounds.FindByID(ctx, registrations[i].RoundID)
		if err != nil {
			return nil, fmt.Errorf("s.rounds.FindByID -> %w", err)
		}

		registrations[i].Status = registrations[i].EffectiveStatus(&round, now)

		if err = s.fillPartners(ctx, &registrations[i]); err != nil {
			return nil, err
		}
	}

	return registrations, nil
}

func (s *RegistrationService) fillPartners(ctx context.Context, registration *domain.Registration) error {
	if registration.MatchID == nil {
		return nil
	}

	match, err := s.matches.FindByID(ctx, *registration.MatchID)
	if err != nil {
		return fmt.Errorf("s.matches.FindByID -> %w", err)
	}

	for _, partner := range match.Partners(registration.ParticipantID) {
		registration.PartnerIDs = append(registration.PartnerIDs, partner.ParticipantID)
	}

	return nil
}
