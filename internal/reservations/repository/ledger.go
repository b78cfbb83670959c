package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationerrors "tabletreats/internal/reservations/errors"
	"tabletreats/pkg/config"
	"tabletreats/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LedgerCollectionName = "timeslots"
)

// LedgerRepository maintains the booked-guest counters, one document
// per (restaurant, date, time slot, seating area). Increment and
// Decrement are single conditional updates so concurrent writers can
// never push a counter past the area capacity or below zero; a unique
// compound index on the key fields keeps the upsert path safe.
type LedgerRepository interface {
	Booked(ctx context.Context, key model.LedgerKey) (int, error)
	BookedForSlot(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error)
	BookedByDate(ctx context.Context, restaurantID, date string) (map[string]int, error)
	Increment(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error
	Decrement(ctx context.Context, key model.LedgerKey, guests int) error
}

type mongoLedgerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		cfg:        cfg,
		collection: db.Collection(LedgerCollectionName),
	}
}

func (r *mongoLedgerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func keyFilter(key model.LedgerKey) bson.M {
	return bson.M{
		"restaurant_id":   key.RestaurantID,
		"date":            key.Date,
		"time_slot":       key.TimeSlot,
		"seating_area_id": key.SeatingAreaID,
	}
}

func (r *mongoLedgerRepository) Booked(ctx context.Context, key model.LedgerKey) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var entry model.LedgerEntry
	err := r.collection.FindOne(ctx, keyFilter(key)).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read ledger entry: %w", err)
	}

	return entry.Booked, nil
}

// BookedForSlot returns booked counts per seating area for one slot.
// Areas without an entry are simply absent.
func (r *mongoLedgerRepository) BookedForSlot(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"restaurant_id": restaurantID,
		"date":          date,
		"time_slot":     timeSlot,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot ledger: %w", err)
	}
	defer cursor.Close(ctx)

	booked := make(map[string]int)
	for cursor.Next(ctx) {
		var entry model.LedgerEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode ledger entry: %w", err)
		}
		booked[entry.SeatingAreaID] += entry.Booked
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slot ledger: %w", err)
	}

	return booked, nil
}

// BookedByDate aggregates booked counts per time slot across all
// seating areas for one date.
func (r *mongoLedgerRepository) BookedByDate(ctx context.Context, restaurantID, date string) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"restaurant_id": restaurantID,
			"date":          date,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$time_slot",
			"booked": bson.M{"$sum": "$booked"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily ledger: %w", err)
	}
	defer cursor.Close(ctx)

	booked := make(map[string]int)
	for cursor.Next(ctx) {
		var row struct {
			TimeSlot string `bson:"_id"`
			Booked   int    `bson:"booked"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode ledger aggregate: %w", err)
		}
		booked[row.TimeSlot] = row.Booked
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger aggregate: %w", err)
	}

	return booked, nil
}

// Increment adds guests to the counter iff the result stays within
// areaCapacity. The first writer for a key inserts the entry; the
// unique compound index turns a racing insert into a duplicate-key
// error, which is retried as a conditional update.
func (r *mongoLedgerRepository) Increment(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if guests > areaCapacity {
		return reservationerrors.ErrCapacityExceeded
	}

	filter := keyFilter(key)
	filter["booked"] = bson.M{"$lte": areaCapacity - guests}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked": guests}})
	if err != nil {
		return fmt.Errorf("failed to increment ledger: %w", err)
	}
	if result.ModifiedCount > 0 {
		return nil
	}

	// No entry matched: either the counter is full or the entry does
	// not exist yet. Distinguish by attempting the first insert.
	entry := model.LedgerEntry{
		RestaurantID:  key.RestaurantID,
		Date:          key.Date,
		TimeSlot:      key.TimeSlot,
		SeatingAreaID: key.SeatingAreaID,
		Booked:        guests,
	}
	_, err = r.collection.InsertOne(ctx, entry)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	// Entry appeared between the update and the insert; retry the
	// conditional update once against the now-existing document.
	result, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked": guests}})
	if err != nil {
		return fmt.Errorf("failed to increment ledger: %w", err)
	}
	if result.ModifiedCount == 0 {
		return reservationerrors.ErrCapacityExceeded
	}

	return nil
}

// Decrement releases guests from the counter without letting it go
// negative. A drifted counter smaller than guests is clamped to zero
// and logged; cancellation must still succeed.
func (r *mongoLedgerRepository) Decrement(ctx context.Context, key model.LedgerKey, guests int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := keyFilter(key)
	filter["booked"] = bson.M{"$gte": guests}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"booked": -guests}})
	if err != nil {
		return fmt.Errorf("failed to decrement ledger: %w", err)
	}
	if result.ModifiedCount > 0 {
		return nil
	}

	r.cfg.Log.Warn("Ledger counter below expected value, clamping to zero",
		"restaurant_id", key.RestaurantID,
		"date", key.Date,
		"time_slot", key.TimeSlot,
		"seating_area_id", key.SeatingAreaID,
		"guests", guests,
	)

	_, err = r.collection.UpdateOne(ctx, keyFilter(key), bson.M{"$set": bson.M{"booked": 0}})
	if err != nil {
		return fmt.Errorf("failed to clamp ledger entry: %w", err)
	}
	return nil
}
