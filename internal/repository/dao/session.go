package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrMeetingPointNotFound = errors.New("meeting point not found")
)

type Session struct {
	ID uint `gorm:"primaryKey"`

	Name        string `gorm:"not null"`
	Location    string `gorm:"not null"`
	Description string
	OrganizerID uint `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MeetingPoint struct {
	ID uint `gorm:"primaryKey"`

	SessionID uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	ImageURL  string

	CreatedAt time.Time `gorm:"not null"`
}

type SessionDAO struct {
	db *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{
		db: db,
	}
}

func (d *SessionDAO) Insert(ctx context.Context, session Session) (Session, error) {
	result := d.db.WithContext(ctx).Create(&session)
	if result.Error != nil {
		return Session{}, result.Error
	}

	return session, nil
}

func (d *SessionDAO) FindByID(ctx context.Context, id uint) (Session, error) {
	var session Session

	result := d.db.WithContext(ctx).First(&session, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Session{}, ErrSessionNotFound
		}

		return Session{}, result.Error
	}

	return session, nil
}

func (d *SessionDAO) FindByOrganizerID(ctx context.Context, organizerID uint) ([]Session, error) {
	var sessions []Session

	result := d.db.WithContext(ctx).Where("organizer_id = ?", organizerID).Find(&sessions)
	if result.Error != nil {
		return nil, result.Error
	}

	return sessions, nil
}

func (d *SessionDAO) InsertMeetingPoint(ctx context.Context, point MeetingPoint) (MeetingPoint, error) {
	result := d.db.WithContext(ctx).Create(&point)
	if result.Error != nil {
		return MeetingPoint{}, result.Error
	}

	return point, nil
}

// FindMeetingPoints returns the session's pool ordered by creation, which
// is the rotation order the matching engine assigns points in.
func (d *SessionDAO) FindMeetingPoints(ctx context.Context, sessionID uint) ([]MeetingPoint, error) {
	var points []MeetingPoint

	result := d.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&points)
	if result.Error != nil {
		return nil, result.Error
	}

	return points, nil
}

func (d *SessionDAO) DeleteMeetingPoint(ctx context.Context, sessionID, pointID uint) error {
	result := d.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&MeetingPoint{}, pointID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMeetingPointNotFound
	}

	return nil
}
