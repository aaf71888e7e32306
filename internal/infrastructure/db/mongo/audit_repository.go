package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskforge/backoffice/internal/core/domain"
)

const collectionAudit = "audit_trail"

// AuditRepository persists trail entries to the audit_trail collection.
// Insert-only: entries are never updated or deleted from here.
type AuditRepository struct {
	db *mongo.Database
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	doc := bson.M{
		"actor_id":     entry.ActorID,
		"action":       string(entry.Action),
		"target_id":    entry.TargetID,
		"occurred_at":  entry.OccurredAt.UTC(),
		"persisted_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(collectionAudit).InsertOne(ctx, doc)
	return err
}
