package repository

import (
	"context"
	"fmt"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
)

var ErrDecisionExists = dao.ErrDecisionExists

type ContactDAO interface {
	Insert(ctx context.Context, decision dao.ContactDecision) (dao.ContactDecision, error)
	FindByDecider(ctx context.Context, deciderID uint) ([]dao.ContactDecision, error)
	FindPair(ctx context.Context, matchID string, deciderID, partnerID uint) (dao.ContactDecision, bool, error)
	FindFeedbackFor(ctx context.Context, partnerID uint) ([]dao.ContactDecision, error)
}

type ContactRepository struct {
	dao ContactDAO
}

func NewContactRepository(dao ContactDAO) *ContactRepository {
	return &ContactRepository{
		dao: dao,
	}
}

func (r *ContactRepository) Create(ctx context.Context, decision domain.ContactDecision) (domain.ContactDecision, error) {
	created, err := r.dao.Insert(ctx, dao.ContactDecision{
		MatchID:      decision.MatchID,
		DeciderID:    decision.DeciderID,
		PartnerID:    decision.PartnerID,
		Share:        decision.Share,
		FeedbackTags: decision.FeedbackTags,
		DecidedAt:    decision.DecidedAt,
	})
	if err != nil {
		return domain.ContactDecision{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ContactRepository) FindByDecider(ctx context.Context, deciderID uint) ([]domain.ContactDecision, error) {
	found, err := r.dao.FindByDecider(ctx, deciderID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByDecider -> %w", err)
	}

	decisions := make([]domain.ContactDecision, 0, len(found))
	for _, decision := range found {
		decisions = append(decisions, r.daoToDomain(decision))
	}

	return decisions, nil
}

func (r *ContactRepository) FindPair(ctx context.Context, matchID string, deciderID, partnerID uint) (*domain.ContactDecision, error) {
	found, ok, err := r.dao.FindPair(ctx, matchID, deciderID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPair -> %w", err)
	}

	if !ok {
		return nil, nil
	}

	decision := r.daoToDomain(found)

	return &decision, nil
}

func (r *ContactRepository) FindFeedbackFor(ctx context.Context, partnerID uint) ([]domain.ContactDecision, error) {
	found, err := r.dao.FindFeedbackFor(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindFeedbackFor -> %w", err)
	}

	decisions := make([]domain.ContactDecision, 0, len(found))
	for _, decision := range found {
		decisions = append(decisions, r.daoToDomain(decision))
	}

	return decisions, nil
}

func (r *ContactRepository) daoToDomain(d dao.ContactDecision) domain.ContactDecision {
	return domain.ContactDecision{
		ID:           d.ID,
		MatchID:      d.MatchID,
		DeciderID:    d.DeciderID,
		PartnerID:    d.PartnerID,
		Share:        d.Share,
		FeedbackTags: d.FeedbackTags,
		DecidedAt:    d.DecidedAt,
	}
}
