package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrDecisionExists = errors.New("contact decision already submitted")

type ContactDecision struct {
	ID uint `gorm:"primaryKey"`

	MatchID   string `gorm:"not null;uniqueIndex:uni_decisions_match_decider_partner"`
	DeciderID uint   `gorm:"not null;uniqueIndex:uni_decisions_match_decider_partner;index"`
	PartnerID uint   `gorm:"not null;uniqueIndex:uni_decisions_match_decider_partner;index"`

	Share        bool      `gorm:"not null"`
	FeedbackTags []string  `gorm:"serializer:json"`
	DecidedAt    time.Time `gorm:"not null"`
}

type ContactDAO struct {
	db *gorm.DB
}

func NewContactDAO(db *gorm.DB) *ContactDAO {
	return &ContactDAO{
		db: db,
	}
}

// Insert commits a decision. The unique index makes the commit
// single-shot: a second submission for the same pair is rejected, never
// overwritten.
func (d *ContactDAO) Insert(ctx context.Context, decision ContactDecision) (ContactDecision, error) {
	result := d.db.WithContext(ctx).Create(&decision)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return ContactDecision{}, ErrDecisionExists
		}

		return ContactDecision{}, result.Error
	}

	return decision, nil
}

func (d *ContactDAO) FindByDecider(ctx context.Context, deciderID uint) ([]ContactDecision, error) {
	var decisions []ContactDecision

	result := d.db.WithContext(ctx).
		Where("decider_id = ?", deciderID).
		Order("decided_at ASC").
		Find(&decisions)
	if result.Error != nil {
		return nil, result.Error
	}

	return decisions, nil
}

// FindPair returns the counterpart decision, if submitted yet.
func (d *ContactDAO) FindPair(ctx context.Context, matchID string, deciderID, partnerID uint) (ContactDecision, bool, error) {
	var decision ContactDecision

	result := d.db.WithContext(ctx).
		First(&decision, "match_id = ? AND decider_id = ? AND partner_id = ?", matchID, deciderID, partnerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ContactDecision{}, false, nil
		}

		return ContactDecision{}, false, result.Error
	}

	return decision, true, nil
}

// FindFeedbackFor returns every decision directed at the participant
// that carries feedback tags. Feedback has no consent gate.
func (d *ContactDAO) FindFeedbackFor(ctx context.Context, partnerID uint) ([]ContactDecision, error) {
	var decisions []ContactDecision

	result := d.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("decided_at ASC").
		Find(&decisions)
	if result.Error != nil {
		return nil, result.Error
	}

	return decisions, nil
}
