// session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Redis-backed session storage. Keys carry a TTL so
// Redis expires abandoned drafts on its own.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     clockwork.Clock
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	// Client is an existing Redis client.
	// If provided, other connection options are ignored.
	Client redis.UniversalClient

	// Address is the Redis server address.
	Address string

	// Password for Redis authentication.
	Password string

	// DB is the database number.
	DB int

	// KeyPrefix is prepended to session keys.
	// Default: "applyform:session:".
	KeyPrefix string

	// PoolSize is the connection pool size.
	// Default: 10.
	PoolSize int

	// Clock computes TTLs. Default: the real clock.
	Clock clockwork.Clock
}

// NewRedisStoreWithConfig creates a Redis store and pings the server.
func NewRedisStoreWithConfig(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	client := cfg.Client
	if client == nil {
		if cfg.Address == "" {
			return nil, errors.New("session: redis address required")
		}

		poolSize := cfg.PoolSize
		if poolSize == 0 {
			poolSize = 10
		}

		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: poolSize,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping %s: %w", cfg.Address, err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "applyform:session:"
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		clock:     clock,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Load retrieves session data by ID.
func (s *RedisStore) Load(ctx context.Context, id string) (*SessionData, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}

	if !s.clock.Now().Before(data.ExpiresAt) {
		return nil, ErrExpired
	}

	return &data, nil
}

// Save stores session data with a TTL matching its expiry. Already expired
// data is not written.
func (s *RedisStore) Save(ctx context.Context, data *SessionData) error {
	ttl := data.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(data.ID), raw, ttl).Err()
}

// Delete removes a session by ID.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Ping checks connectivity; used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
