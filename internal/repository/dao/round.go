package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundAlreadyMatched = errors.New("round already matched")
)

type Round struct {
	ID uint `gorm:"primaryKey"`

	SessionID uint   `gorm:"not null;index"`
	Title     string `gorm:"not null"`

	StartsAt                 time.Time `gorm:"not null"`
	DurationMinutes          int       `gorm:"not null"`
	ConfirmOpenOffsetMinutes int       `gorm:"not null"`

	TargetGroupSize       int  `gorm:"not null"`
	MaxGroupSize          int  `gorm:"not null"`
	AllowOverflowMatching bool `gorm:"not null"`

	MatchedAt   *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RoundDAO struct {
	db *gorm.DB
}

func NewRoundDAO(db *gorm.DB) *RoundDAO {
	return &RoundDAO{
		db: db,
	}
}

func (d *RoundDAO) Insert(ctx context.Context, round Round) (Round, error) {
	result := d.db.WithContext(ctx).Create(&round)
	if result.Error != nil {
		return Round{}, result.Error
	}

	return round, nil
}

func (d *RoundDAO) FindByID(ctx context.Context, id uint) (Round, error) {
	var round Round

	result := d.db.WithContext(ctx).First(&round, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Round{}, ErrRoundNotFound
		}

		return Round{}, result.Error
	}

	return round, nil
}

func (d *RoundDAO) FindBySessionID(ctx context.Context, sessionID uint) ([]Round, error) {
	var rounds []Round

	result := d.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("starts_at ASC").
		Find(&rounds)
	if result.Error != nil {
		return nil, result.Error
	}

	return rounds, nil
}

// Cancel marks the round cancelled and moves every non-terminal
// registration to the cancelled status in the same transaction.
func (d *RoundDAO) Cancel(ctx context.Context, roundID uint, cancelledAt time.Time, terminalStatuses []string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Round{}).
			Where("id = ? AND cancelled_at IS NULL", roundID).
			Update("cancelled_at", cancelledAt)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			// Already cancelled; leave registrations as they are.
			return nil
		}

		return tx.Model(&Registration{}).
			Where("round_id = ? AND status NOT IN ?", roundID, terminalStatuses).
			Update("status", "cancelled").Error
	})
}
