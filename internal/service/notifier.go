package service

import (
	"go.uber.org/zap"

	"github.com/roundmeet/roundmeet-api/internal/domain"
)

// Notifier receives fire-and-forget triggers on status transitions.
// Delivery mechanics (email, SMS, push) live behind this boundary and
// are never awaited by the engine.
type Notifier interface {
	StatusChanged(participantID, roundID uint, from, to domain.Status)
}

// LogNotifier is the default dispatcher; it only records the trigger.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) StatusChanged(participantID, roundID uint, from, to domain.Status) {
	zap.L().Info("status transition notification",
		zap.Uint("participant_id", participantID),
		zap.Uint("round_id", roundID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}
