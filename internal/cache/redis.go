package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/sevabooking/config"
	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	slotsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, slotsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		slotsTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, slotsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, slotsTTL: slotsTTL}
}

// GetSlots returns the cached slot list; a miss yields nil, nil.
func (c *RedisCache) GetSlots(ctx context.Context, offeringID, date string) ([]domain.Slot, error) {
	data, err := c.client.Get(ctx, slotsKey(offeringID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var slots []domain.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetSlots(ctx context.Context, offeringID, date string, slots []domain.Slot) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slotsKey(offeringID, date), payload, c.slotsTTL).Err()
}

func (c *RedisCache) InvalidateSlots(ctx context.Context, offeringID, date string) error {
	return c.client.Del(ctx, slotsKey(offeringID, date)).Err()
}

// AcquireDayLock takes a short exclusive lock on one offering's day.
func (c *RedisCache) AcquireDayLock(ctx context.Context, offeringID, date string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, dayLockKey(offeringID, date), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseDayLock(ctx context.Context, offeringID, date string) error {
	return c.client.Del(ctx, dayLockKey(offeringID, date)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func slotsKey(offeringID, date string) string {
	return fmt.Sprintf("cache:seva:slots:%s:%s", offeringID, date)
}

func dayLockKey(offeringID, date string) string {
	return fmt.Sprintf("lock:seva:%s:%s", offeringID, date)
}
