package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	restauranterrors "tabletreats/internal/restaurants/errors"
	"tabletreats/pkg/config"
	"tabletreats/pkg/model"
	"tabletreats/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "restaurants"
)

// ListFilter narrows restaurant discovery queries. Zero values mean
// "no filter".
type ListFilter struct {
	City    string
	Cuisine string
}

type mongoRestaurantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type RestaurantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
	FindByOwnerEmail(ctx context.Context, email string) (*model.Restaurant, error)
	List(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Restaurant, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	UpdateHours(ctx context.Context, id string, hours map[string]model.DayHours) error
	UpdateSeatingConfig(ctx context.Context, id string, cfg model.SeatingConfig) error
	AddPromo(ctx context.Context, id string, deal model.Deal) error
	ReplacePromo(ctx context.Context, id string, deal model.Deal) error
	RemovePromo(ctx context.Context, id string, promoID string) error
}

func NewMongoRestaurantRepository(cfg *config.Config) RestaurantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRestaurantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRestaurantRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoRestaurantRepository) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", restauranterrors.ErrInvalidID, id)
	}

	var restaurant model.Restaurant
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&restaurant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, restauranterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find restaurant: %w", err)
	}

	return &restaurant, nil
}

func (r *mongoRestaurantRepository) FindByOwnerEmail(ctx context.Context, email string) (*model.Restaurant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var restaurant model.Restaurant
	err := r.collection.FindOne(ctx, bson.M{"owner_email": email}).Decode(&restaurant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, restauranterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find restaurant by owner: %w", err)
	}

	return &restaurant, nil
}

func (r *mongoRestaurantRepository) List(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Restaurant, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "restaurant_name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, r.buildListFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	var restaurants []*model.Restaurant
	if err = cursor.All(ctx, &restaurants); err != nil {
		return nil, fmt.Errorf("failed to decode restaurants: %w", err)
	}

	return restaurants, nil
}

func (r *mongoRestaurantRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, r.buildListFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return count, nil
}

func (r *mongoRestaurantRepository) buildListFilter(filter ListFilter) bson.M {
	query := bson.M{"is_onboarded": true}

	if filter.City != "" {
		// Case-insensitive match; user input is escaped before it
		// reaches $regex.
		query["city"] = bson.M{
			"$regex":   "^" + sanitizer.EscapeRegex(filter.City) + "$",
			"$options": "i",
		}
	}
	if filter.Cuisine != "" {
		query["cuisines"] = bson.M{
			"$regex":   "^" + sanitizer.EscapeRegex(filter.Cuisine) + "$",
			"$options": "i",
		}
	}

	return query
}

func (r *mongoRestaurantRepository) UpdateHours(ctx context.Context, id string, hours map[string]model.DayHours) error {
	return r.updateFields(ctx, id, bson.M{"hours": hours})
}

func (r *mongoRestaurantRepository) UpdateSeatingConfig(ctx context.Context, id string, cfg model.SeatingConfig) error {
	return r.updateFields(ctx, id, bson.M{"seating_config": cfg})
}

func (r *mongoRestaurantRepository) updateFields(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", restauranterrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update restaurant: %w", err)
	}

	if result.MatchedCount == 0 {
		return restauranterrors.ErrNotFound
	}
	return nil
}

func (r *mongoRestaurantRepository) AddPromo(ctx context.Context, id string, deal model.Deal) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", restauranterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$push": bson.M{"promos": deal},
		"$set":  bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to add promo: %w", err)
	}

	if result.MatchedCount == 0 {
		return restauranterrors.ErrNotFound
	}
	return nil
}

func (r *mongoRestaurantRepository) ReplacePromo(ctx context.Context, id string, deal model.Deal) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", restauranterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "promos.id": deal.ID}
	update := bson.M{
		"$set": bson.M{
			"promos.$":   deal,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to replace promo: %w", err)
	}

	if result.MatchedCount == 0 {
		return restauranterrors.ErrPromoNotFound
	}
	return nil
}

func (r *mongoRestaurantRepository) RemovePromo(ctx context.Context, id string, promoID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", restauranterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$pull": bson.M{"promos": bson.M{"id": promoID}},
		"$set":  bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove promo: %w", err)
	}

	if result.ModifiedCount == 0 {
		return restauranterrors.ErrPromoNotFound
	}
	return nil
}
