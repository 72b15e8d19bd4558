// Package audit records user-visible dashboard actions to the event log.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/tubedash/domain"
)

// Recorder persists audit events. Recording must never fail the action being
// audited; persistence errors are logged and swallowed.
type Recorder struct {
	events domain.EventLogRepository
}

func NewRecorder(events domain.EventLogRepository) *Recorder {
	return &Recorder{events: events}
}

// Record writes one audit event for the user's action.
func (r *Recorder) Record(ctx context.Context, userID, action string, details map[string]any) {
	event := &domain.EventLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.events.Insert(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("action", action).
			Msg("failed to persist audit event")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("action", action).
		Fields(map[string]interface{}{"details": details}).
		Msg("audit event")
}
