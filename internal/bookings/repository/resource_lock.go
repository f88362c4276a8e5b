package repository

import (
	"context"
	"time"

	"clinicdesk/pkg/config"
	"clinicdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Resource_locks"

// ResourceLockRepository provides operations for per-resource advisory locks.
// Lock documents are keyed by resource ID; a TTL index on expires_at reclaims
// locks left behind by crashed writers.
type ResourceLockRepository interface {
	Acquire(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error)
	Release(ctx context.Context, resourceID string) error
}

type mongoResourceLockRepository struct {
	collection *mongo.Collection
}

func NewResourceLockRepository(cfg *config.Config) ResourceLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResourceLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

// Returns duplicate key error if the resource is already locked
func (r *mongoResourceLockRepository) Acquire(ctx context.Context, lock *model.ResourceLock) (*model.ResourceLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Release removes the advisory lock for a resource
func (r *mongoResourceLockRepository) Release(ctx context.Context, resourceID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": resourceID})
	return err
}
