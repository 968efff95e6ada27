package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrMatchNotFound = errors.New("match not found")

type Match struct {
	ID string `gorm:"primaryKey"`

	RoundID        uint `gorm:"not null;index"`
	MeetingPointID uint `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

type MatchMember struct {
	MatchID       string `gorm:"primaryKey"`
	ParticipantID uint   `gorm:"primaryKey"`

	Position   int    `gorm:"not null"`
	MeetNumber int    `gorm:"not null"`
	State      string `gorm:"not null"`
}

// MatchAssignment is one formed group plus the registration writes that
// must land with it.
type MatchAssignment struct {
	Match   Match
	Members []MatchMember

	// RegistrationIDs holds, per member, the registration to point at
	// the new match. Ordered like Members.
	RegistrationIDs []uint
}

type MatchDAO struct {
	db *gorm.DB
}

func NewMatchDAO(db *gorm.DB) *MatchDAO {
	return &MatchDAO{
		db: db,
	}
}

// PersistAssignments writes a whole matching run in one transaction. The
// conditional update on rounds.matched_at serializes concurrent runs for
// the same round: the second writer sees zero affected rows and backs
// off, so a round is matched exactly once and no partial group is ever
// visible to a concurrent reader.
func (d *MatchDAO) PersistAssignments(ctx context.Context, roundID uint, matchedAt time.Time, assignments []MatchAssignment) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Round{}).
			Where("id = ? AND matched_at IS NULL", roundID).
			Update("matched_at", matchedAt)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrRoundAlreadyMatched
		}

		for _, assignment := range assignments {
			if err := tx.Create(&assignment.Match).Error; err != nil {
				return err
			}

			if err := tx.Create(&assignment.Members).Error; err != nil {
				return err
			}

			for i, member := range assignment.Members {
				err := tx.Model(&Registration{}).
					Where("id = ? AND status = ?", assignment.RegistrationIDs[i], "confirmed").
					Updates(map[string]interface{}{
						"status":           "matched",
						"match_id":         assignment.Match.ID,
						"meeting_point_id": assignment.Match.MeetingPointID,
						"meet_number":      member.MeetNumber,
					}).Error
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (d *MatchDAO) FindByID(ctx context.Context, id string) (Match, []MatchMember, error) {
	var match Match

	result := d.db.WithContext(ctx).First(&match, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Match{}, nil, ErrMatchNotFound
		}

		return Match{}, nil, result.Error
	}

	members, err := d.findMembers(ctx, id)
	if err != nil {
		return Match{}, nil, err
	}

	return match, members, nil
}

func (d *MatchDAO) FindByRoundID(ctx context.Context, roundID uint) ([]Match, map[string][]MatchMember, error) {
	var matches []Match

	result := d.db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("created_at ASC, id ASC").
		Find(&matches)
	if result.Error != nil {
		return nil, nil, result.Error
	}

	membersByMatch := make(map[string][]MatchMember, len(matches))
	for _, match := range matches {
		members, err := d.findMembers(ctx, match.ID)
		if err != nil {
			return nil, nil, err
		}
		membersByMatch[match.ID] = members
	}

	return matches, membersByMatch, nil
}

func (d *MatchDAO) findMembers(ctx context.Context, matchID string) ([]MatchMember, error) {
	var members []MatchMember

	result := d.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("position ASC").
		Find(&members)
	if result.Error != nil {
		return nil, result.Error
	}

	return members, nil
}

// SetMemberCheckedIn flips one member to checked_in. Idempotent: a
// member already checked in yields zero affected rows, reported as ok.
func (d *MatchDAO) SetMemberCheckedIn(ctx context.Context, matchID string, participantID uint) error {
	return d.db.WithContext(ctx).Model(&MatchMember{}).
		Where("match_id = ? AND participant_id = ?", matchID, participantID).
		Update("state", "checked_in").Error
}

// SetMet moves every member registration of a fully checked-in match to
// met. Returns false without writing when some member is still pending;
// the recount inside the transaction closes the race with a concurrent
// check-in.
func (d *MatchDAO) SetMet(ctx context.Context, matchID string) (bool, error) {
	met := false

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&MatchMember{}).
			Where("match_id = ? AND state <> ?", matchID, "checked_in").
			Count(&pending).Error; err != nil {
			return err
		}

		if pending > 0 {
			return nil
		}

		if err := tx.Model(&Registration{}).
			Where("match_id = ? AND status = ?", matchID, "checked_in").
			Update("status", "met").Error; err != nil {
			return err
		}

		met = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return met, nil
}
