// Package store persists job records in an expiring key-value store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
)

// ResultStore tracks the status and outcome of jobs. Records expire after
// the retention window; an expired record is indistinguishable from one that
// never existed.
type ResultStore interface {
	// Set replaces the full record for record.JobID and resets its
	// expiry. There are no partial updates.
	Set(ctx context.Context, record *core.JobRecord) error
	// Get returns the current record, or core.ErrJobNotFound for unknown or
	// expired identifiers.
	Get(ctx context.Context, jobID string) (*core.JobRecord, error)
	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error
}

const keyPrefix = "job:"

type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a ResultStore backed by Redis. Each record is a
// single JSON value written with SET and a TTL, so every write is atomic and
// concurrent writers to the same job can never interleave fields.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) ResultStore {
	return &redisStore{client: client, ttl: ttl}
}

// NewRedisClient creates a Redis client from the application configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (s *redisStore) Set(ctx context.Context, record *core.JobRecord) error {
	if record == nil || record.JobID == "" {
		return errors.New("record must have a job id")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+record.JobID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, jobID string) (*core.JobRecord, error) {
	if jobID == "" {
		return nil, core.ErrJobNotFound
	}

	payload, err := s.client.Get(ctx, keyPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrJobNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record core.JobRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &record, nil
}

func (s *redisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
