package repository

import (
	"context"
	"fmt"
	"time"

	reservationerrors "tabletreats/internal/reservations/errors"
	"tabletreats/pkg/config"
	"tabletreats/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "reservation_locks"
)

// SlotLockRepository holds short-lived advisory locks keyed by slot.
// Acquisition is an insert against the _id; a second writer for the
// same slot gets a duplicate-key error. A TTL index on expires_at
// reaps locks left behind by crashed processes.
type SlotLockRepository interface {
	Acquire(ctx context.Context, key model.LedgerKey, ttl time.Duration) (string, error)
	Release(ctx context.Context, lockID string) error
}

type mongoSlotLockRepository struct {
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func lockID(key model.LedgerKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", key.RestaurantID, key.Date, key.TimeSlot, key.SeatingAreaID)
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, key model.LedgerKey, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	lock := model.SlotLock{
		ID:        lockID(key),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", reservationerrors.ErrLockHeld
		}
		return "", fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	return lock.ID, nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	if err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
