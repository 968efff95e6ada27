package repository

import (
	"context"
	"fmt"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
)

var (
	ErrSessionNotFound      = dao.ErrSessionNotFound
	ErrMeetingPointNotFound = dao.ErrMeetingPointNotFound
)

type SessionDAO interface {
	Insert(ctx context.Context, session dao.Session) (dao.Session, error)
	FindByID(ctx context.Context, id uint) (dao.Session, error)
	FindByOrganizerID(ctx context.Context, organizerID uint) ([]dao.Session, error)
	InsertMeetingPoint(ctx context.Context, point dao.MeetingPoint) (dao.MeetingPoint, error)
	FindMeetingPoints(ctx context.Context, sessionID uint) ([]dao.MeetingPoint, error)
	DeleteMeetingPoint(ctx context.Context, sessionID, pointID uint) error
}

type SessionRepository struct {
	dao SessionDAO
}

func NewSessionRepository(dao SessionDAO) *SessionRepository {
	return &SessionRepository{
		dao: dao,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	created, err := r.dao.Insert(ctx, dao.Session{
		Name:        session.Name,
		Location:    session.Location,
		Description: session.Description,
		OrganizerID: session.OrganizerID,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint) (domain.Session, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *SessionRepository) FindByOrganizerID(ctx context.Context, organizerID uint) ([]domain.Session, error) {
	found, err := r.dao.FindByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizerID -> %w", err)
	}

	sessions := make([]domain.Session, 0, len(found))
	for _, s := range found {
		sessions = append(sessions, r.daoToDomain(s))
	}

	return sessions, nil
}

func (r *SessionRepository) CreateMeetingPoint(ctx context.Context, point domain.MeetingPoint) (domain.MeetingPoint, error) {
	created, err := r.dao.InsertMeetingPoint(ctx, dao.MeetingPoint{
		SessionID: point.SessionID,
		Name:      point.Name,
		ImageURL:  point.ImageURL,
	})
	if err != nil {
		return domain.MeetingPoint{}, fmt.Errorf("r.dao.InsertMeetingPoint -> %w", err)
	}

	return r.pointDaoToDomain(created), nil
}

func (r *SessionRepository) FindMeetingPoints(ctx context.Context, sessionID uint) ([]domain.MeetingPoint, error) {
	found, err := r.dao.FindMeetingPoints(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindMeetingPoints -> %w", err)
	}

	points := make([]domain.MeetingPoint, 0, len(found))
	for _, p := range found {
		points = append(points, r.pointDaoToDomain(p))
	}

	return points, nil
}

func (r *SessionRepository) DeleteMeetingPoint(ctx context.Context, sessionID, pointID uint) error {
	if err := r.dao.DeleteMeetingPoint(ctx, sessionID, pointID); err != nil {
		return fmt.Errorf("r.dao.DeleteMeetingPoint -> %w", err)
	}

	return nil
}

func (r *SessionRepository) daoToDomain(s dao.Session) domain.Session {
	return domain.Session{
		ID:          s.ID,
		Name:        s.Name,
		Location:    s.Location,
		Description: s.Description,
		OrganizerID: s.OrganizerID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (r *SessionRepository) pointDaoToDomain(p dao.MeetingPoint) domain.MeetingPoint {
	return domain.MeetingPoint{
		ID:        p.ID,
		SessionID: p.SessionID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}
