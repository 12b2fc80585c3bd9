// Package redis provides the Redis-backed CoordinationStore.
//
// Redis supplies exactly the primitives the engine needs: SET NX EX for
// atomic conditional-set with expiry, INCRBYFLOAT for counter increments, and
// key TTLs for lease expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jcvera13/radiology-worklist/types"
)

// Store is a types.CoordinationStore backed by a Redis server.
type Store struct {
	client *redis.Client
}

// Compile-time assertion that Store implements CoordinationStore.
var _ types.CoordinationStore = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB is the database number.
	DB int

	// PoolSize caps the connection pool. Zero uses go-redis defaults.
	PoolSize int
}

// New creates a store connected to the given Redis server.
//
// The connection is lazy; call Ping to verify reachability.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	return &Store{client: client}
}

// NewWithClient wraps an existing go-redis client. The caller retains
// ownership of the client's lifecycle unless Close is used.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", types.ErrKeyNotFound, key)
		}

		return "", fmt.Errorf("%w: get %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return n == 1, nil
}

func (s *Store) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	value, err := s.client.IncrByFloat(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: incrbyfloat %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return value, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: expire %s: %w", types.ErrStoreUnavailable, key, err)
	}

	return ok, nil
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: ttl %s: %w", types.ErrStoreUnavailable, key, err)
	}

	// go-redis reports -2 for a missing key and -1 for no expiry.
	if ttl == -2*time.Nanosecond {
		return 0, fmt.Errorf("%w: %s", types.ErrKeyNotFound, key)
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: keys %s: %w", types.ErrStoreUnavailable, pattern, err)
	}

	return keys, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", types.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
