package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/models"
)

// ErrSnapshotNotFound is returned by Load when no snapshot has been mirrored or it expired
var ErrSnapshotNotFound = errors.New("cached snapshot not found")

// RedisCache mirrors the last accepted catalog snapshot in Redis
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 24 * time.Hour, 0 keeps the snapshot forever
	Key      string        // e.g., "offer_catalog:snapshot"
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		key:    config.Key,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Save replaces the mirrored snapshot. Older versions never overwrite newer ones.
func (c *RedisCache) Save(ctx context.Context, snapshot *models.CachedSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	versionKey := c.versionKey()
	var mirrored uint64
	skipped := false

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Uint64()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil && current > snapshot.Version {
			mirrored = current
			skipped = true
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, data, c.ttl)
			pipe.Set(ctx, versionKey, snapshot.Version, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	if skipped {
		c.logger.Warn().
			Str("key", c.key).
			Uint64("version", snapshot.Version).
			Uint64("mirrored_version", mirrored).
			Msg("skipped mirroring snapshot older than the mirrored one")
		return nil
	}

	c.logger.Debug().
		Str("key", c.key).
		Uint64("version", snapshot.Version).
		Int("size", len(snapshot.Offers)).
		Dur("ttl", c.ttl).
		Msg("mirrored catalog snapshot")

	return nil
}

// Load retrieves the mirrored snapshot
func (c *RedisCache) Load(ctx context.Context) (*models.CachedSnapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, ErrSnapshotNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var snapshot models.CachedSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) versionKey() string {
	return c.key + ":version"
}
