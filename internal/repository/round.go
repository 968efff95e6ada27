package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
)

var (
	ErrRoundNotFound       = dao.ErrRoundNotFound
	ErrRoundAlreadyMatched = dao.ErrRoundAlreadyMatched
)

// terminalStatuses are excluded from the bulk cancel write; a cancelled
// round never resurrects a finished registration.
var terminalStatuses = []string{
	string(domain.StatusUnconfirmed),
	string(domain.StatusCompleted),
	string(domain.StatusCancelled),
}

type RoundDAO interface {
	Insert(ctx context.Context, round dao.Round) (dao.Round, error)
	FindByID(ctx context.Context, id uint) (dao.Round, error)
	FindBySessionID(ctx context.Context, sessionID uint) ([]dao.Round, error)
	Cancel(ctx context.Context, roundID uint, cancelledAt time.Time, terminalStatuses []string) error
}

type RoundRepository struct {
	dao RoundDAO
}

func NewRoundRepository(dao RoundDAO) *RoundRepository {
	return &RoundRepository{
		dao: dao,
	}
}

func (r *RoundRepository) Create(ctx context.Context, round domain.Round) (domain.Round, error) {
	created, err := r.dao.Insert(ctx, dao.Round{
		SessionID:                round.SessionID,
		Title:                    round.Title,
		StartsAt:                 round.StartsAt,
		DurationMinutes:          round.DurationMinutes,
		ConfirmOpenOffsetMinutes: round.ConfirmOpenOffsetMinutes,
		TargetGroupSize:          round.TargetGroupSize,
		MaxGroupSize:             round.MaxGroupSize,
		AllowOverflowMatching:    round.AllowOverflowMatching,
	})
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *RoundRepository) FindByID(ctx context.Context, id uint) (domain.Round, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Round{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *RoundRepository) FindBySessionID(ctx context.Context, sessionID uint) ([]domain.Round, error) {
	found, err := r.dao.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindBySessionID -> %w", err)
	}

	rounds := make([]domain.Round, 0, len(found))
	for _, round := range found {
		rounds = append(rounds, r.daoToDomain(round))
	}

	return rounds, nil
}

func (r *RoundRepository) Cancel(ctx context.Context, roundID uint, cancelledAt time.Time) error {
	if err := r.dao.Cancel(ctx, roundID, cancelledAt, terminalStatuses); err != nil {
		return fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return nil
}

func (r *RoundRepository) daoToDomain(d dao.Round) domain.Round {
	return domain.Round{
		ID:                       d.ID,
		SessionID:                d.SessionID,
		Title:                    d.Title,
		StartsAt:                 d.StartsAt,
		DurationMinutes:          d.DurationMinutes,
		ConfirmOpenOffsetMinutes: d.ConfirmOpenOffsetMinutes,
		TargetGroupSize:          d.TargetGroupSize,
		MaxGroupSize:             d.MaxGroupSize,
		AllowOverflowMatching:    d.AllowOverflowMatching,
		MatchedAt:                d.MatchedAt,
		CancelledAt:              d.CancelledAt,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}
