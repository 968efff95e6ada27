package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roundmeet/roundmeet-api/internal/domain"
	"github.com/roundmeet/roundmeet-api/internal/repository"
)

var (
	ErrRoundAlreadyMatched = repository.ErrRoundAlreadyMatched
	ErrNoMeetingPoints     = errors.New("session has no meeting points configured")
)

// MatchingResult is the outcome of one matching run. AlreadyMatched
// marks the conflict-as-no-op case: the round was matched before and the
// previously formed matches are returned unchanged.
type MatchingResult struct {
	Matches        []domain.Match `json:"matches"`
	AlreadyMatched bool           `json:"already_matched"`

	// UnmatchedParticipantIDs are eligible participants that no group
	// could take. A degraded outcome, not an error: their registrations
	// stay confirmed and the UI reports "no match found".
	UnmatchedParticipantIDs []uint `json:"unmatched_participant_ids,omitempty"`
}

type MatchingRoundRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Round, error)
}

type MatchingPointRepository interface {
	FindMeetingPoints(ctx context.Context, sessionID uint) ([]domain.MeetingPoint, error)
}

type MatchingRegistrationRepository interface {
	FindByRoundID(ctx context.Context, roundID uint) ([]domain.Registration, error)
}

// MatchWriter is the only write surface through which matches come into
// existence and registrations gain the matched status.
type MatchWriter interface {
	CreateMatches(ctx context.Context, roundID uint, matchedAt time.Time, matches []domain.Match, registrationIDs map[string][]uint) error
	FindByRoundID(ctx context.Context, roundID uint) ([]domain.Match, error)
}

type MatchingService struct {
	rounds        MatchingRoundRepository
	points        MatchingPointRepository
	registrations MatchingRegistrationRepository
	matches       MatchWriter
	notifier      Notifier

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMatchingService(rounds MatchingRoundRepository, points MatchingPointRepository, registrations MatchingRegistrationRepository, matches MatchWriter, notifier Notifier, rnd *rand.Rand) *MatchingService {
	return &MatchingService{
		rounds:        rounds,
		points:        points,
		registrations: registrations,
		matches:       matches,
		notifier:      notifier,
		rnd:           rnd,
	}
}

// ListEligible returns the registrations whose effective status at now
// is confirmed. Registrations that became unconfirmed by now are out.
func (s *MatchingService) ListEligible(ctx context.Context, roundID uint, now time.Time) ([]domain.Registration, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	registrations, err := s.registrations.FindByRoundID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("s.registrations.FindByRoundID -> %w", err)
	}

	eligible := make([]domain.Registration, 0, len(registrations))
	for _, registration := range registrations {
		if registration.EffectiveStatus(&round, now) == domain.StatusConfirmed {
			eligible = append(eligible, registration)
		}
	}

	return eligible, nil
}

// RunMatching partitions the confirmed pool of a round into matches and
// persists them atomically. A round is matched exactly once: a repeat
// call, concurrent or later, returns the existing matches with
// AlreadyMatched set instead of reshuffling.
func (s *MatchingService) RunMatching(ctx context.Context, roundID uint, now time.Time) (MatchingResult, error) {
	round, err := s.rounds.FindByID(ctx, roundID)
	if err != nil {
		return MatchingResult{}, fmt.Errorf("s.rounds.FindByID -> %w", err)
	}

	if round.IsCancelled() {
		return MatchingResult{}, ErrRoundCancelled
	}

	if round.IsMatched() {
		return s.existingResult(ctx, roundID)
	}

	eligible, err := s.ListEligible(ctx, roundID, now)
	if err != nil {
		return MatchingResult{}, err
	}

	groups, unmatched := s.partition(eligible, &round)

	var matches []domain.Match
	registrationIDs := make(map[string][]uint)

	if len(groups) > 0 {
		points, err := s.points.FindMeetingPoints(ctx, round.SessionID)
		if err != nil {
			return MatchingResult{}, fmt.Errorf("s.points.FindMeetingPoints -> %w", err)
		}

		if len(points) == 0 {
			return MatchingResult{}, ErrNoMeetingPoints
		}

		matches, registrationIDs = s.buildMatches(groups, &round, points, now)
	}

	if err = s.matches.CreateMatches(ctx, roundID, now, matches, registrationIDs); err != nil {
		if errors.Is(err, repository.ErrRoundAlreadyMatched) {
			// Lost the race against a duplicate trigger.
			return s.existingResult(ctx, roundID)
		}

		return MatchingResult{}, fmt.Errorf("s.matches.CreateMatches -> %w", err)
	}

	for _, match := range matches {
		for _, member := range match.Members {
			go s.notifier.StatusChanged(member.ParticipantID, roundID, domain.StatusConfirmed, domain.StatusMatched)
		}
	}

	result := MatchingResult{Matches: matches}
	for _, registration := range unmatched {
		result.UnmatchedParticipantIDs = append(result.UnmatchedParticipantIDs, registration.ParticipantID)
	}

	return result, nil
}

func (s *MatchingService) existingResult(ctx context.Context, roundID uint) (MatchingResult, error) {
	existing, err := s.matches.FindByRoundID(ctx, roundID)
	if err != nil {
		return MatchingResult{}, fmt.Errorf("s.matches.FindByRoundID -> %w", err)
	}

	return MatchingResult{Matches: existing, AlreadyMatched: true}, nil
}

// partition shuffles the eligible pool and forms groups. Greedy groups
// of the target size first; the remainder is folded into existing groups
// round-robin up to the maximum when overflow is allowed, or forms its
// own smaller group when it is at least a pair.
func (s *MatchingService) partition(eligible []domain.Registration, round *domain.Round) ([][]domain.Registration, []domain.Registration) {
	pool := make([]domain.Registration, len(eligible))
	copy(pool, eligible)

	s.mu.Lock()
	s.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	var groups [][]domain.Registration
	i := 0
	for len(pool)-i >= round.TargetGroupSize {
		// Each group owns its backing array; overflow appends below must
		// never write into the next group's members.
		group := make([]domain.Registration, round.TargetGroupSize)
		copy(group, pool[i:i+round.TargetGroupSize])
		groups = append(groups, group)
		i += round.TargetGroupSize
	}
	remainder := pool[i:]

	if len(remainder) == 0 {
		return groups, nil
	}

	switch {
	case round.AllowOverflowMatching && len(groups) > 0:
		var leftover []domain.Registration
		next := 0
		for _, registration := range remainder {
			placed := false
			for tries := 0; tries < len(groups); tries++ {
				candidate := next % len(groups)
				next++
				if len(groups[candidate]) < round.MaxGroupSize {
					groups[candidate] = append(groups[candidate], registration)
					placed = true
					break
				}
			}
			if !placed {
				leftover = append(leftover, registration)
			}
		}
		remainder = leftover
	case len(remainder) >= 2:
		// A pair or more stands on its own; the remainder is always
		// below the target size, so it fits within the maximum.
		groups = append(groups, remainder)
		remainder = nil
	}

	return groups, remainder
}

func (s *MatchingService) buildMatches(groups [][]domain.Registration, round *domain.Round, points []domain.MeetingPoint, now time.Time) ([]domain.Match, map[string][]uint) {
	matches := make([]domain.Match, 0, len(groups))
	registrationIDs := make(map[string][]uint, len(groups))

	for i, group := range groups {
		match := domain.Match{
			ID:      uuid.NewString(),
			RoundID: round.ID,
			// Meeting points rotate; when exhausted they are reused
			// from the first.
			MeetingPointID: points[i%len(points)].ID,
			CreatedAt:      now,
		}

		numbers := s.meetNumbers(len(group))
		for position, registration := range group {
			match.Members = append(match.Members, domain.MatchMember{
				MatchID:       match.ID,
				ParticipantID: registration.ParticipantID,
				Position:      position,
				MeetNumber:    numbers[position],
				State:         domain.MemberAwaitingSelection,
			})
			registrationIDs[match.ID] = append(registrationIDs[match.ID], registration.ID)
		}

		matches = append(matches, match)
	}

	return matches, registrationIDs
}

// meetNumbers draws n distinct two-digit identifiers for one match.
func (s *MatchingService) meetNumbers(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[int]bool, n)
	numbers := make([]int, 0, n)
	for len(numbers) < n {
		candidate := s.rnd.Intn(90) + 10
		if used[candidate] {
			continue
		}
		used[candidate] = true
		numbers = append(numbers, candidate)
	}

	return numbers
}
