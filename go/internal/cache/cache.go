package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Snapshot names cached by the read endpoints.
const (
	SnapshotTeams   = "teams"
	SnapshotPlayers = "players"
)

// Snapshots caches serialized read projections.
//
// Entries are versioned by a generation counter. Get reports the generation
// it looked at; a value computed after that Get must be stored under the
// same generation, so a value computed before an Invalidate is never served
// after it.
type Snapshots interface {
	Get(ctx context.Context, name string) (data []byte, generation int64, hit bool, err error)
	Set(ctx context.Context, name string, generation int64, data []byte) error
	Invalidate(ctx context.Context) error
}

// Redis stores snapshots in Redis with a short TTL.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// DefaultTTL bounds how long a snapshot may be served if an invalidation is lost.
const DefaultTTL = 30 * time.Second

// NewRedisFromURL parses redisURL and verifies the connection.
func NewRedisFromURL(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(rdb, prefix, ttl), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "auction"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) generationKey() string {
	return r.prefix + ":generation"
}

func (r *Redis) snapshotKey(name string, generation int64) string {
	return fmt.Sprintf("%s:snapshot:%s:%d", r.prefix, name, generation)
}

func (r *Redis) Get(ctx context.Context, name string) ([]byte, int64, bool, error) {
	generation, err := r.rdb.Get(ctx, r.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("failed to read cache generation: %w", err)
	}

	data, err := r.rdb.Get(ctx, r.snapshotKey(name, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, false, nil
	}
	if err != nil {
		return nil, generation, false, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	return data, generation, true, nil
}

func (r *Redis) Set(ctx context.Context, name string, generation int64, data []byte) error {
	if err := r.rdb.Set(ctx, r.snapshotKey(name, generation), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.rdb.Incr(ctx, r.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshots: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Noop never caches anything. Used when no Redis is configured.
type Noop struct{}

func (Noop) Get(ctx context.Context, name string) ([]byte, int64, bool, error) {
	return nil, 0, false, nil
}

func (Noop) Set(ctx context.Context, name string, generation int64, data []byte) error {
	return nil
}

func (Noop) Invalidate(ctx context.Context) error {
	return nil
}

// Load returns the cached snapshot name, or calls fetch and caches the result.
// Cache failures are logged and never fail the read.
func Load[T any](ctx context.Context, c Snapshots, name string, fetch func(ctx context.Context) (T, error)) (T, error) {
	data, generation, hit, err := c.Get(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("snapshot", name).Msg("snapshot cache read failed")
	}
	if hit {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		log.Warn().Str("snapshot", name).Msg("discarding undecodable cached snapshot")
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}

	if encoded, err := json.Marshal(value); err == nil {
		if err := c.Set(ctx, name, generation, encoded); err != nil {
			log.Warn().Err(err).Str("snapshot", name).Msg("snapshot cache write failed")
		}
	}
	return value, nil
}
