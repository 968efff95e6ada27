package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationExists   = errors.New("registration already exists")
)

type Registration struct {
	ID uint `gorm:"primaryKey"`

	SessionID     uint `gorm:"not null;index"`
	RoundID       uint `gorm:"not null;uniqueIndex:uni_registrations_round_participant"`
	ParticipantID uint `gorm:"not null;uniqueIndex:uni_registrations_round_participant"`

	Status       string    `gorm:"not null;index"`
	RegisteredAt time.Time `gorm:"not null"`
	ConfirmedAt  *time.Time

	MatchID        *string `gorm:"index"`
	MeetingPointID *uint
	MeetNumber     int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

func (d *RegistrationDAO) Insert(ctx context.Context, registration Registration) (Registration, error) {
	result := d.db.WithContext(ctx).Create(&registration)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return Registration{}, ErrRegistrationExists
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).First(&registration, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

// FindByRoundAndParticipant reads one record by its composite key.
func (d *RegistrationDAO) FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).
		First(&registration, "round_id = ? AND participant_id = ?", roundID, participantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) FindByRoundID(ctx context.Context, roundID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("id ASC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

func (d *RegistrationDAO) FindByParticipantID(ctx context.Context, participantID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("id ASC").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

// Confirm records the participant's explicit confirm action. The guard on
// the stored status keeps the write idempotent under double taps.
func (d *RegistrationDAO) Confirm(ctx context.Context, id uint, confirmedAt time.Time) (Registration, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND status = ?", id, "registered").
		Updates(map[string]interface{}{
			"status":       "confirmed",
			"confirmed_at": confirmedAt,
		})
	if result.Error != nil {
		return Registration{}, result.Error
	}

	return d.FindByID(ctx, id)
}

// UpdateStatus advances the stored status only when the record still
// holds the expected one.
func (d *RegistrationDAO) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// UpdateStatuses persists a batch of recomputed statuses. Used by the
// periodic sweep.
func (d *RegistrationDAO) UpdateStatuses(ctx context.Context, statusByID map[uint]string) error {
	if len(statusByID) == 0 {
		return nil
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, status := range statusByID {
			if err := tx.Model(&Registration{}).
				Where("id = ?", id).
				Update("status", status).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
