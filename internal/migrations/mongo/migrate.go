package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	RestaurantsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "is_onboarded", Value: 1},
			{Key: "city", Value: 1},
			{Key: "cuisines", Value: 1},
		}},
	}

	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "customer_email", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "restaurant_id", Value: 1},
			{Key: "date", Value: 1},
		}},
	}

	// The unique compound index is what makes the ledger's
	// insert-on-miss path race-safe: two writers creating the first
	// entry for the same slot collide here instead of double-counting.
	TimeslotsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "restaurant_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "time_slot", Value: 1},
				{Key: "seating_area_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	// Abandoned advisory locks expire via TTL rather than blocking a
	// slot forever.
	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("Running migrations on database: %s\n", dbName)

	collections := map[string][]mongo.IndexModel{
		"restaurants":       RestaurantsIndexes,
		"reservations":      ReservationsIndexes,
		"timeslots":         TimeslotsIndexes,
		"reservation_locks": ReservationLocksIndexes,
	}

	for name, indexes := range collections {
		if err := ensureCollection(ctx, db, name); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("Creating collection: %s\n", name)
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	fmt.Printf("Ensured indexes for %s\n", name)
	return nil
}
