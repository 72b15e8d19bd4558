package domain

import (
	"context"
	"time"
)

// Audit event actions recorded by the dashboard.
const (
	EventVideoDetailsUpdated = "VIDEO_DETAILS_UPDATED"
	EventCommentAdded        = "COMMENT_ADDED"
	EventCommentDeleted      = "COMMENT_DELETED"
	EventNoteCreated         = "NOTE_CREATED"
	EventNoteDeleted         = "NOTE_DELETED"
)

// EventLog is an append-only audit record of a user-visible action.
type EventLog struct {
	ID        string         `bson:"_id" json:"id"`
	UserID    string         `bson:"user_id" json:"user_id"`
	Action    string         `bson:"action" json:"action"`
	Details   map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

type EventLogRepository interface {
	Insert(ctx context.Context, event *EventLog) error
}
