package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

var (
	ErrDecisionExists = repository.ErrDecisionExists
	ErrMatchNotMet    = errors.New("match has not been fully met")
	ErrInvalidPartner = errors.New("partner is not a member of this match")
)

type ContactRepository interface {
	Create(ctx context.Context, decision domain.ContactDecision) (domain.ContactDecision, error)
	FindByDecider(ctx context.Context, deciderID uint) ([]domain.ContactDecision, error)
	FindPair(ctx context.Context, matchID string, deciderID, partnerID uint) (*domain.ContactDecision, error)
	FindFeedbackFor(ctx context.Context, partnerID uint) ([]domain.ContactDecision, error)
}

type ContactMatchRepository interface {
	FindByID(ctx context.Context, id string) (domain.Match, error)
}

type ContactRoundRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Round, error)
}

type ContactRegistrationRepository interface {
	FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (domain.Registration, error)
}

type ContactUserRepository interface {
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)
}

// ContactService mediates post-round contact sharing. It never mutates
// registration status; its writes are confined to decisions and
// feedback.
type ContactService struct {
	contacts      ContactRepository
	matches       ContactMatchRepository
	rounds        ContactRoundRepository
	registrations ContactRegistrationRepository
	users         ContactUserRepository

	revealDelay time.Duration
}

func NewContactService(contacts ContactRepository, matches ContactMatchRepository, rounds ContactRoundRepository, registrations ContactRegistrationRepository, users ContactUserRepository, revealDelay time.Duration) *ContactService {
	return &ContactService{
		contacts:      contacts,
		matches:       matches,
		rounds:        rounds,
		registrations: registrations,
		users:         users,
		revealDelay:   revealDelay,
	}
}

// SubmitDecision commits one share/no-share choice, with optional
// feedback tags, for one partner. Single-shot: a repeat submission is
// rejected with ErrDecisionExists, never overwritten.
func (s *ContactService) SubmitDecision(ctx context.Context, participantID uint, matchID string, partnerID uint, share bool, feedbackTags []string, now time.Time) (domain.ContactDecision, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return domain.ContactDecision{}, fmt.Errorf("s.matches.FindByID -> %w", err)
	}

	if !match.HasMember(participantID) {
		return domain.ContactDecision{}, ErrNotMatchMember
	}

	if partnerID == participantID || !match.HasMember(partnerID) {
		return domain.ContactDecision{}, ErrInvalidPartner
	}

	if err = s.requireMet(ctx, match.RoundID, participantID, now); err != nil {
		return domain.ContactDecision{}, err
	}

	created, err := s.contacts.Create(ctx, domain.ContactDecision{
		MatchID:      matchID,
		DeciderID:    participantID,
		PartnerID:    partnerID,
		Share:        share,
		FeedbackTags: feedbackTags,
		DecidedAt:    now,
	})
	if err != nil {
		return domain.ContactDecision{}, fmt.Errorf("s.contacts.Create -> %w", err)
	}

	return created, nil
}

// GetDecisions returns the participant's own submissions; those are
// visible to their author immediately and unconditionally.
func (s *ContactService) GetDecisions(ctx context.Context, participantID uint) ([]domain.ContactDecision, error) {
	decisions, err := s.contacts.FindByDecider(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.contacts.FindByDecider -> %w", err)
	}

	return decisions, nil
}

// GetSharedContacts lists the partners whose contact details are visible
// to the participant at now: both sides submitted share=true and the
// reveal delay has elapsed since the later submission.
func (s *ContactService) GetSharedContacts(ctx context.Context, participantID uint, now time.Time) ([]domain.SharedContact, error) {
	mine, err := s.contacts.FindByDecider(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.contacts.FindByDecider -> %w", err)
	}

	type reveal struct {
		partnerID uint
		matchID   string
		sharedAt  time.Time
	}

	var reveals []reveal
	var partnerIDs []uint
	for i := range mine {
		decision := &mine[i]
		if !decision.Share {
			continue
		}

		theirs, err := s.contacts.FindPair(ctx, decision.MatchID, decision.PartnerID, decision.DeciderID)
		if err != nil {
			return nil, fmt.Errorf("s.contacts.FindPair -> %w", err)
		}

		if !domain.MutualShare(decision, theirs) {
			continue
		}

		revealAt := domain.RevealAt(decision, theirs, s.revealDelay)
		if now.Before(revealAt) {
			continue
		}

		reveals = append(reveals, reveal{
			partnerID: decision.PartnerID,
			matchID:   decision.MatchID,
			sharedAt:  revealAt,
		})
		partnerIDs = append(partnerIDs, decision.PartnerID)
	}

	if len(reveals) == 0 {
		return nil, nil
	}

	partners, err := s.users.FindByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("s.users.FindByIDs -> %w", err)
	}

	partnerByID := make(map[uint]domain.User, len(partners))
	for _, partner := range partners {
		partnerByID[partner.ID] = partner
	}

	contacts := make([]domain.SharedContact, 0, len(reveals))
	for _, r := range reveals {
		contacts = append(contacts, domain.SharedContact{
			Partner:  partnerByID[r.partnerID],
			MatchID:  r.matchID,
			SharedAt: r.sharedAt,
		})
	}

	return contacts, nil
}

// GetFeedbackReceived returns feedback directed at the participant.
// One-directional: no consent gate, no delay.
func (s *ContactService) GetFeedbackReceived(ctx context.Context, participantID uint) ([]domain.FeedbackEntry, error) {
	decisions, err := s.contacts.FindFeedbackFor(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.contacts.FindFeedbackFor -> %w", err)
	}

	var entries []domain.FeedbackEntry
	for _, decision := range decisions {
		if len(decision.FeedbackTags) == 0 {
			continue
		}

		entries = append(entries, domain.FeedbackEntry{
			MatchID: decision.MatchID,
			FromID:  decision.DeciderID,
			Tags:    decision.FeedbackTags,
			GivenAt: decision.DecidedAt,
		})
	}

	return entries, nil
}

func (s *ContactService) requireMet(ctx context.Context, roundID, participantID uint, now time.Time) error {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	registration, err := s.registrations.FindByRoundAndParticipant(ctx, roundID, participantID)
	if err != nil {
		return fmt.Errorf("s.registrations.FindByRoundAndParticipant -> %w", err)
	}

	switch registration.EffectiveStatus(&round, now) {
	case domain.StatusMet, domain.StatusCompleted:
		return nil
	}

	return ErrMatchNotMet
}
