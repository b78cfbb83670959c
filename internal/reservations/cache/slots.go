package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"

	"github.com/redis/go-redis/v9"
)

// SlotCache keeps resolved operating windows (and their generated slot
// labels) in Redis so availability checks do not re-read the
// restaurant document on every request. The cache is strictly an
// optimization: a nil client or a Redis failure degrades to uncached
// reads.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewSlotCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *SlotCache {
	return &SlotCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func hoursKey(restaurantID, date string) string {
	return fmt.Sprintf("slots:%s:%s", restaurantID, date)
}

func (c *SlotCache) GetHours(ctx context.Context, restaurantID, date string) (*model.HoursInfo, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, hoursKey(restaurantID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Slot cache read failed", "restaurant_id", restaurantID, "error", err)
		}
		return nil, false
	}

	var info model.HoursInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.log.Warn("Slot cache entry corrupt, dropping", "restaurant_id", restaurantID, "error", err)
		c.client.Del(ctx, hoursKey(restaurantID, date))
		return nil, false
	}

	return &info, true
}

func (c *SlotCache) SetHours(ctx context.Context, restaurantID, date string, info *model.HoursInfo) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, hoursKey(restaurantID, date), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Slot cache write failed", "restaurant_id", restaurantID, "error", err)
	}
}

// InvalidateRestaurant drops every cached date for the restaurant.
// Called after hours or seating configuration changes.
func (c *SlotCache) InvalidateRestaurant(ctx context.Context, restaurantID string) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("slots:%s:*", restaurantID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Slot cache scan failed", "restaurant_id", restaurantID, "error", err)
		return
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.log.Warn("Slot cache invalidation failed", "restaurant_id", restaurantID, "error", err)
		}
	}
}
