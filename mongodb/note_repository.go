package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/tubedash/domain"
)

// NoteRepositoryMongo implements domain.NoteRepository.
type NoteRepositoryMongo struct {
	collection *mongo.Collection
}

func NewNoteRepositoryMongo(ctx context.Context, db *mongo.Database) (*NoteRepositoryMongo, error) {
	repo := &NoteRepositoryMongo{collection: db.Collection(NotesCollection)}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create notes indexes")
	}
	return repo, nil
}

func (r *NoteRepositoryMongo) createIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "video_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating indexes for %s collection: %w", NotesCollection, err)
	}
	return nil
}

func (r *NoteRepositoryMongo) Create(ctx context.Context, note *domain.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, note)
	if err != nil {
		log.Error().Err(err).Str("user_id", note.UserID).Str("video_id", note.VideoID).Msg("error creating note")
		return err
	}
	return nil
}

func (r *NoteRepositoryMongo) ListByUserAndVideo(ctx context.Context, userID, videoID string) ([]*domain.Note, error) {
	filter := bson.M{"user_id": userID, "video_id": videoID}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("video_id", videoID).Msg("error listing notes")
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []*domain.Note
	if err = cursor.All(ctx, &notes); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("error decoding notes")
		return nil, err
	}
	return notes, nil
}

// Delete removes the note only when it belongs to userID; the ownership check
// is the query filter itself.
func (r *NoteRepositoryMongo) Delete(ctx context.Context, id, userID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		log.Error().Err(err).Str("note_id", id).Msg("error deleting note")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

var _ domain.NoteRepository = (*NoteRepositoryMongo)(nil)
