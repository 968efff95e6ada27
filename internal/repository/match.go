package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
)

var ErrMatchNotFound = dao.ErrMatchNotFound

type MatchDAO interface {
	PersistAssignments(ctx context.Context, roundID uint, matchedAt time.Time, assignments []dao.MatchAssignment) error
	FindByID(ctx context.Context, id string) (dao.Match, []dao.MatchMember, error)
	FindByRoundID(ctx context.Context, roundID uint) ([]dao.Match, map[string][]dao.MatchMember, error)
	SetMemberCheckedIn(ctx context.Context, matchID string, participantID uint) error
	SetMet(ctx context.Context, matchID string) (bool, error)
}

type MatchRepository struct {
	dao MatchDAO
}

func NewMatchRepository(dao MatchDAO) *MatchRepository {
	return &MatchRepository{
		dao: dao,
	}
}

// CreateMatches persists a whole matching run atomically. Each
// domain.Match must carry the registration IDs of its members in
// registrationIDs, keyed by match ID and ordered like the members.
func (r *MatchRepository) CreateMatches(ctx context.Context, roundID uint, matchedAt time.Time, matches []domain.Match, registrationIDs map[string][]uint) error {
	assignments := make([]dao.MatchAssignment, 0, len(matches))
	for _, match := range matches {
		members := make([]dao.MatchMember, 0, len(match.Members))
		for _, member := range match.Members {
			members = append(members, dao.MatchMember{
				MatchID:       member.MatchID,
				ParticipantID: member.ParticipantID,
				Position:      member.Position,
				MeetNumber:    member.MeetNumber,
				State:         string(member.State),
			})
		}

		assignments = append(assignments, dao.MatchAssignment{
			Match: dao.Match{
				ID:             match.ID,
				RoundID:        match.RoundID,
				MeetingPointID: match.MeetingPointID,
				CreatedAt:      match.CreatedAt,
			},
			Members:         members,
			RegistrationIDs: registrationIDs[match.ID],
		})
	}

	if err := r.dao.PersistAssignments(ctx, roundID, matchedAt, assignments); err != nil {
		return fmt.Errorf("r.dao.PersistAssignments -> %w", err)
	}

	return nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id string) (domain.Match, error) {
	match, members, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Match{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(match, members), nil
}

func (r *MatchRepository) FindByRoundID(ctx context.Context, roundID uint) ([]domain.Match, error) {
	found, membersByMatch, err := r.dao.FindByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRoundID -> %w", err)
	}

	matches := make([]domain.Match, 0, len(found))
	for _, match := range found {
		matches = append(matches, r.daoToDomain(match, membersByMatch[match.ID]))
	}

	return matches, nil
}

func (r *MatchRepository) SetMemberCheckedIn(ctx context.Context, matchID string, participantID uint) error {
	if err := r.dao.SetMemberCheckedIn(ctx, matchID, participantID); err != nil {
		return fmt.Errorf("r.dao.SetMemberCheckedIn -> %w", err)
	}

	return nil
}

func (r *MatchRepository) SetMet(ctx context.Context, matchID string) (bool, error) {
	met, err := r.dao.SetMet(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("r.dao.SetMet -> %w", err)
	}

	return met, nil
}

func (r *MatchRepository) daoToDomain(m dao.Match, members []dao.MatchMember) domain.Match {
	match := domain.Match{
		ID:             m.ID,
		RoundID:        m.RoundID,
		MeetingPointID: m.MeetingPointID,
		CreatedAt:      m.CreatedAt,
	}

	for _, member := range members {
		match.Members = append(match.Members, domain.MatchMember{
			MatchID:       member.MatchID,
			ParticipantID: member.ParticipantID,
			Position:      member.Position,
			MeetNumber:    member.MeetNumber,
			State:         domain.MemberState(member.State),
		})
	}

	return match
}
