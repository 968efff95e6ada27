package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

var (
	ErrSessionNotFound      = repository.ErrSessionNotFound
	ErrMeetingPointNotFound = repository.ErrMeetingPointNotFound
	ErrNotSessionOrganizer  = errors.New("user does not organize this session")
)

type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) (domain.Session, error)
	FindByID(ctx context.Context, id uint) (domain.Session, error)
	FindByOrganizerID(ctx context.Context, organizerID uint) ([]domain.Session, error)
	CreateMeetingPoint(ctx context.Context, point domain.MeetingPoint) (domain.MeetingPoint, error)
	FindMeetingPoints(ctx context.Context, sessionID uint) ([]domain.MeetingPoint, error)
	DeleteMeetingPoint(ctx context.Context, sessionID, pointID uint) error
}

type SessionService struct {
	repo SessionRepository
}

func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{
		repo: repo,
	}
}

func (s *SessionService) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return domain.Session{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *SessionService) GetSession(ctx context.Context, id uint) (domain.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return session, nil
}

func (s *SessionService) GetSessionsForOrganizer(ctx context.Context, organizerID uint) ([]domain.Session, error) {
	sessions, err := s.repo.FindByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByOrganizerID -> %w", err)
	}

	return sessions, nil
}

func (s *SessionService) AddMeetingPoint(ctx context.Context, point domain.MeetingPoint, organizerID uint) (domain.MeetingPoint, error) {
	if err := s.requireOrganizer(ctx, point.SessionID, organizerID); err != nil {
		return domain.MeetingPoint{}, err
	}

	created, err := s.repo.CreateMeetingPoint(ctx, point)
	if err != nil {
		return domain.MeetingPoint{}, fmt.Errorf("s.repo.CreateMeetingPoint -> %w", err)
	}

	return created, nil
}

func (s *SessionService) GetMeetingPoints(ctx context.Context, sessionID uint) ([]domain.MeetingPoint, error) {
	points, err := s.repo.FindMeetingPoints(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindMeetingPoints -> %w", err)
	}

	return points, nil
}

func (s *SessionService) RemoveMeetingPoint(ctx context.Context, sessionID, pointID, organizerID uint) error {
	if err := s.requireOrganizer(ctx, sessionID, organizerID); err != nil {
		return err
	}

	if err := s.repo.DeleteMeetingPoint(ctx, sessionID, pointID); err != nil {
		return fmt.Errorf("s.repo.DeleteMeetingPoint -> %w", err)
	}

	return nil
}

func (s *SessionService) requireOrganizer(ctx context.Context, sessionID, organizerID uint) error {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if session.OrganizerID != organizerID {
		return ErrNotSessionOrganizer
	}

	return nil
}
