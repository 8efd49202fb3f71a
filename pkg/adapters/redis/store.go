package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/capstone-ai/dna/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "dna:"

// farFuture scores index members of entries that never expire.
const farFuture = 4102444800 // 2100-01-01

// Store implements ports.Store using Redis. Values are stored as JSON under
// prefix+id; a sorted set scored by expiry indexes the live IDs.
type Store[T any] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*config)

type config struct {
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// WithTTL sets the expiration of stored values.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithClock overrides time.Now for index scores.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// NewClient connects to a Redis server.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewFromClient creates a store over an existing client.
func NewFromClient[T any](client *backend.Client, opts ...Option) *Store[T] {
	c := config{prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return &Store[T]{
		client: client,
		prefix: c.prefix,
		ttl:    c.ttl,
		now:    c.now,
	}
}

func (s *Store[T]) key(id string) string {
	return s.prefix + id
}

func (s *Store[T]) indexKey() string {
	return s.prefix + "index"
}

// Save persists the value to Redis.
func (s *Store[T]) Save(ctx context.Context, id string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	pipe := s.client.Pipeline()

	// Zero ttl means no expiration.
	pipe.Set(ctx, s.key(id), data, s.ttl)

	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the value from Redis.
func (s *Store[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return zero, domain.ErrNotFound
		}
		return zero, fmt.Errorf("failed to get from redis: %w", err)
	}

	var out T
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return zero, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return out, nil
}

// Delete removes the value and its index entry.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns live IDs, lazily pruning expired ones from the index.
func (s *Store[T]) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired entries: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store[T]) Close() error {
	return s.client.Close()
}
