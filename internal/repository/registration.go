package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrRegistrationExists   = dao.ErrRegistrationExists
)

type RegistrationDAO interface {
	Insert(ctx context.Context, registration dao.Registration) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (dao.Registration, error)
	FindByRoundID(ctx context.Context, roundID uint) ([]dao.Registration, error)
	FindByParticipantID(ctx context.Context, participantID uint) ([]dao.Registration, error)
	Confirm(ctx context.Context, id uint, confirmedAt time.Time) (dao.Registration, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error)
	UpdateStatuses(ctx context.Context, statusByID map[uint]string) error
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) Create(ctx context.Context, registration domain.Registration) (domain.Registration, error) {
	created, err := r.dao.Insert(ctx, dao.Registration{
		SessionID:     registration.SessionID,
		RoundID:       registration.RoundID,
		ParticipantID: registration.ParticipantID,
		Status:        string(registration.Status),
		RegisteredAt:  registration.RegisteredAt,
	})
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (domain.Registration, error) {
	found, err := r.dao.FindByRoundAndParticipant(ctx, roundID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByRoundAndParticipant -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RegistrationRepository) FindByRoundID(ctx context.Context, roundID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRoundID -> %w", err)
	}

	registrations := make([]domain.Registration, 0, len(found))
	for _, registration := range found {
		registrations = append(registrations, r.daoToDomain(registration))
	}

	return registrations, nil
}

func (r *RegistrationRepository) FindByParticipantID(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByParticipantID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByParticipantID -> %w", err)
	}

	registrations := make([]domain.Registration, 0, len(found))
	for _, registration := range found {
		registrations = append(registrations, r.daoToDomain(registration))
	}

	return registrations, nil
}

func (r *RegistrationRepository) Confirm(ctx context.Context, id uint, confirmedAt time.Time) (domain.Registration, error) {
	confirmed, err := r.dao.Confirm(ctx, id, confirmedAt)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Confirm -> %w", err)
	}

	return r.daoToDomain(confirmed), nil
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.Status) (bool, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return updated, nil
}

func (r *RegistrationRepository) UpdateStatuses(ctx context.Context, statusByID map[uint]domain.Status) error {
	byID := make(map[uint]string, len(statusByID))
	for id, status := range statusByID {
		byID[id] = string(status)
	}

	if err := r.dao.UpdateStatuses(ctx, byID); err != nil {
		return fmt.Errorf("r.dao.UpdateStatuses -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) daoToDomain(d dao.Registration) domain.Registration {
	return domain.Registration{
		ID:             d.ID,
		SessionID:      d.SessionID,
		RoundID:        d.RoundID,
		ParticipantID:  d.ParticipantID,
		Status:         domain.Status(d.Status),
		RegisteredAt:   d.RegisteredAt,
		ConfirmedAt:    d.ConfirmedAt,
		MatchID:        d.MatchID,
		MeetingPointID: d.MeetingPointID,
		MeetNumber:     d.MeetNumber,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
