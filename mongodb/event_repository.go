package mongodb

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"go.pilab.hu/tubedash/domain"
)

// EventLogRepositoryMongo implements domain.EventLogRepository. The event log
// is append-only.
type EventLogRepositoryMongo struct {
	collection *mongo.Collection
}

func NewEventLogRepositoryMongo(db *mongo.Database) *EventLogRepositoryMongo {
	return &EventLogRepositoryMongo{collection: db.Collection(EventLogCollection)}
}

func (r *EventLogRepositoryMongo) Insert(ctx context.Context, event *domain.EventLog) error {
	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("action", event.Action).Msg("error inserting audit event")
		return err
	}
	return nil
}

var _ domain.EventLogRepository = (*EventLogRepositoryMongo)(nil)
