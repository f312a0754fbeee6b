package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/afaf/accounts/internal/core/domain"
	"github.com/afaf/accounts/internal/core/ports"
)

const authEventsCollection = "auth_events"

// EventRepository implements ports.AuditRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

func NewEventRepository(db *mongo.Database) ports.AuditRepository {
	return &EventRepository{db: db}
}

// InsertEvent appends an entry to the auth_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"type":        string(event.Type),
		"email":       event.Email,
		"outcome":     event.Outcome,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.AccountID != uuid.Nil {
		doc["account_id"] = event.AccountID.String()
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.db.Collection(authEventsCollection).InsertOne(ctx, doc)
	return err
}
