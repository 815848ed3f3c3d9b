package exprstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okalita/spot-optimizer/pkg/logger"
)

const (
	// DefaultRedisKeyPrefix is the default prefix for expression keys.
	DefaultRedisKeyPrefix = "expressions:"
	// DefaultRedisSetKey is the default key for the set of all expression IDs.
	DefaultRedisSetKey = "expressions:ids"
)

// RedisClient is the subset of go-redis used by RedisStore. *redis.Client
// satisfies it; tests substitute an in-memory fake.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// RedisStoreConfig holds configuration for RedisStore.
type RedisStoreConfig struct {
	KeyPrefix string
	SetKey    string
}

// DefaultRedisStoreConfig returns the default key layout.
func DefaultRedisStoreConfig() RedisStoreConfig {
	return RedisStoreConfig{
		KeyPrefix: DefaultRedisKeyPrefix,
		SetKey:    DefaultRedisSetKey,
	}
}

// RedisStore is a Redis-backed implementation of Store. Expressions are
// stored as JSON under expressions:{id}; a set holds all IDs for listing.
type RedisStore struct {
	client RedisClient
	config RedisStoreConfig
	ctx    context.Context
}

// NewRedisStore creates a Redis-backed expression store.
func NewRedisStore(client RedisClient, config RedisStoreConfig) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisKeyPrefix
	}
	if config.SetKey == "" {
		config.SetKey = DefaultRedisSetKey
	}
	return &RedisStore{
		client: client,
		config: config,
		ctx:    context.Background(),
	}, nil
}

// Get retrieves an expression by ID.
func (s *RedisStore) Get(id string) (*Expression, error) {
	data, err := s.client.Get(s.ctx, s.config.KeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get expression from redis: %w", err)
	}

	var expr Expression
	if err := json.Unmarshal([]byte(data), &expr); err != nil {
		return nil, fmt.Errorf("invalid expression data in redis: %w", err)
	}
	return &expr, nil
}

// List retrieves all saved expressions. Entries that fail to load are
// skipped with a warning rather than failing the whole listing.
func (s *RedisStore) List() ([]*Expression, error) {
	ids, err := s.client.SMembers(s.ctx, s.config.SetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expression ids: %w", err)
	}

	out := make([]*Expression, 0, len(ids))
	for _, id := range ids {
		expr, err := s.Get(id)
		if err != nil {
			logger.Warn("Failed to load saved expression",
				logger.String("expression_id", id),
				logger.ErrorField(err),
			)
			continue
		}
		out = append(out, expr)
	}
	return out, nil
}

// Add stores a new expression.
func (s *RedisStore) Add(expr *Expression) error {
	if err := Validate(expr); err != nil {
		return err
	}

	if _, err := s.Get(expr.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, expr.ID)
	}

	now := time.Now()
	if expr.CreatedAt.IsZero() {
		expr.CreatedAt = now
	}
	if expr.UpdatedAt.IsZero() {
		expr.UpdatedAt = now
	}

	return s.write(expr)
}

// Update overwrites an existing expression, preserving its creation time.
func (s *RedisStore) Update(expr *Expression) error {
	if err := Validate(expr); err != nil {
		return err
	}

	existing, err := s.Get(expr.ID)
	if err != nil {
		return err
	}
	expr.CreatedAt = existing.CreatedAt
	expr.UpdatedAt = time.Now()

	return s.write(expr)
}

// Delete removes an expression by ID.
func (s *RedisStore) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.client.Del(s.ctx, s.config.KeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete expression: %w", err)
	}
	if err := s.client.SRem(s.ctx, s.config.SetKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove expression id: %w", err)
	}
	return nil
}

func (s *RedisStore) write(expr *Expression) error {
	data, err := json.Marshal(expr)
	if err != nil {
		return fmt.Errorf("failed to marshal expression: %w", err)
	}

	if err := s.client.Set(s.ctx, s.config.KeyPrefix+expr.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store expression: %w", err)
	}
	if err := s.client.SAdd(s.ctx, s.config.SetKey, expr.ID).Err(); err != nil {
		return fmt.Errorf("failed to index expression id: %w", err)
	}
	return nil
}
