package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNoteNotFound = errors.New("note not found")

// Note is a private annotation a user keeps on a video. Notes never leave the
// local store and are invisible to other users.
type Note struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	VideoID   string    `bson:"video_id" json:"video_id"`
	Content   string    `bson:"content" json:"content"`
	Tags      []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	// ListByUserAndVideo returns the user's notes for a video, newest first.
	ListByUserAndVideo(ctx context.Context, userID, videoID string) ([]*Note, error)
	// Delete removes a note only if it belongs to userID; ErrNoteNotFound
	// otherwise.
	Delete(ctx context.Context, id, userID string) error
}
