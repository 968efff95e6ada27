package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

var (
	ErrMatchNotFound     = repository.ErrMatchNotFound
	ErrNotMatchMember    = errors.New("participant is not a member of this match")
	ErrInvalidTransition = errors.New("registration is not in the expected status")
)

// SelectionOutcome reports one partner-number attempt. A wrong pick is
// retryable and mutates nothing.
type SelectionOutcome struct {
	Correct   bool `json:"correct"`
	CheckedIn bool `json:"checked_in"`
	MatchMet  bool `json:"match_met"`
}

// RendezvousMatchRepository is the only surface allowed to advance
// member states between matched and met.
type RendezvousMatchRepository interface {
	FindByID(ctx context.Context, id string) (domain.Match, error)
	SetMemberCheckedIn(ctx context.Context, matchID string, participantID uint) error
	SetMet(ctx context.Context, matchID string) (bool, error)
}

type RendezvousRegistrationRepository interface {
	FindByRoundAndParticipant(ctx context.Context, roundID, participantID uint) (domain.Registration, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.Status) (bool, error)
}

type RendezvousService struct {
	matches       RendezvousMatchRepository
	registrations RendezvousRegistrationRepository
	notifier      Notifier

	decoyCount int
	mu         sync.Mutex
	rnd        *rand.Rand
}

func NewRendezvousService(matches RendezvousMatchRepository, registrations RendezvousRegistrationRepository, notifier Notifier, decoyCount int, rnd *rand.Rand) *RendezvousService {
	if decoyCount <= 0 {
		decoyCount = 2
	}

	return &RendezvousService{
		matches:       matches,
		registrations: registrations,
		notifier:      notifier,
		decoyCount:    decoyCount,
		rnd:           rnd,
	}
}

// AcknowledgeMeetingPoint records "I am on my way": matched -> walking.
func (s *RendezvousService) AcknowledgeMeetingPoint(ctx context.Context, participantID uint, matchID string) error {
	return s.advance(ctx, participantID, matchID, domain.StatusMatched, domain.StatusWalking)
}

// ConfirmArrival records "I am here": walking -> waiting.
func (s *RendezvousService) ConfirmArrival(ctx context.Context, participantID uint, matchID string) error {
	return s.advance(ctx, participantID, matchID, domain.StatusWalking, domain.StatusWaiting)
}

func (s *RendezvousService) advance(ctx context.Context, participantID uint, matchID string, from, to domain.Status) error {
	registration, _, err := s.memberRegistration(ctx, participantID, matchID)
	if err != nil {
		return err
	}

	ok, err := s.registrations.UpdateStatus(ctx, registration.ID, from, to)
	if err != nil {
		return fmt.Errorf("s.registrations.UpdateStatus -> %w", err)
	}

	if !ok {
		return ErrInvalidTransition
	}

	go s.notifier.StatusChanged(participantID, registration.RoundID, from, to)

	return nil
}

// PartnerNumberOptions returns the candidate numbers shown to the
// participant: each partner's genuine meet number mixed with decoys.
// Decoys are redrawn per call; correctness is judged against the genuine
// numbers only.
func (s *RendezvousService) PartnerNumberOptions(ctx context.Context, participantID uint, matchID string) ([]int, error) {
	_, match, err := s.memberRegistration(ctx, participantID, matchID)
	if err != nil {
		return nil, err
	}

	genuine := match.PartnerNumbers(participantID)
	taken := make(map[int]bool, len(match.Members))
	for _, member := range match.Members {
		taken[member.MeetNumber] = true
	}

	options := append([]int(nil), genuine...)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(genuine)*s.decoyCount; i++ {
		for {
			candidate := s.rnd.Intn(90) + 10
			if !taken[candidate] {
				taken[candidate] = true
				options = append(options, candidate)
				break
			}
		}
	}

	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return options, nil
}

// SelectPartnerNumber resolves one attempt at the find-each-other
// exchange. A correct pick moves the member waiting -> checked_in; once
// every member is checked in the whole match becomes met. A wrong pick
// is reported for retry and leaves all state untouched.
func (s *RendezvousService) SelectPartnerNumber(ctx context.Context, participantID uint, matchID string, selected int) (SelectionOutcome, error) {
	registration, match, err := s.memberRegistration(ctx, participantID, matchID)
	if err != nil {
		return SelectionOutcome{}, err
	}

	correct := false
	for _, number := range match.PartnerNumbers(participantID) {
		if number == selected {
			correct = true
			break
		}
	}

	if !correct {
		return SelectionOutcome{}, nil
	}

	ok, err := s.registrations.UpdateStatus(ctx, registration.ID, domain.StatusWaiting, domain.StatusCheckedIn)
	if err != nil {
		return SelectionOutcome{}, fmt.Errorf("s.registrations.UpdateStatus -> %w", err)
	}

	if !ok {
		return SelectionOutcome{}, ErrInvalidTransition
	}

	if err = s.matches.SetMemberCheckedIn(ctx, matchID, participantID); err != nil {
		return SelectionOutcome{}, fmt.Errorf("s.matches.SetMemberCheckedIn -> %w", err)
	}

	go s.notifier.StatusChanged(participantID, registration.RoundID, domain.StatusWaiting, domain.StatusCheckedIn)

	met, err := s.matches.SetMet(ctx, matchID)
	if err != nil {
		return SelectionOutcome{}, fmt.Errorf("s.matches.SetMet -> %w", err)
	}

	if met {
		for _, member := range match.Members {
			go s.notifier.StatusChanged(member.ParticipantID, registration.RoundID, domain.StatusCheckedIn, domain.StatusMet)
		}
	}

	return SelectionOutcome{Correct: true, CheckedIn: true, MatchMet: met}, nil
}

func (s *RendezvousService) memberRegistration(ctx context.Context, participantID uint, matchID string) (domain.Registration, domain.Match, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return domain.Registration{}, domain.Match{}, fmt.Errorf("s.matches.FindByID -> %w", err)
	}

	if !match.HasMember(participantID) {
		return domain.Registration{}, domain.Match{}, ErrNotMatchMember
	}

	registration, err := s.registrations.FindByRoundAndParticipant(ctx, match.RoundID, participantID)
	if err != nil {
		return domain.Registration{}, domain.Match{}, fmt.Errorf("s.registrations.FindByRoundAndParticipant -> %w", err)
	}

	return registration, match, nil
}
