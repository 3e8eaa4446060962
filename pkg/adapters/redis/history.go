// Package redis persists run conversation history in Redis lists.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/weftworks/weft/pkg/ports"
)

// HistoryStore implements ports.HistoryStore using Redis.
// Each run's exchanges live in one list under <prefix><runID>.
type HistoryStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*HistoryStore)

// WithTTL sets the expiration applied to a run's history on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *HistoryStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for history lists.
func WithPrefix(prefix string) Option {
	return func(s *HistoryStore) {
		s.prefix = prefix
	}
}

// New creates a new Redis history store with options.
func New(address, password string, db int, opts ...Option) *HistoryStore {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a new Redis history store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *HistoryStore {
	store := &HistoryStore{
		client: client,
		prefix: "weft:history:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *HistoryStore) key(runID string) string {
	return s.prefix + runID
}

// Append records one exchange at the end of the run's history.
func (s *HistoryStore) Append(ctx context.Context, runID string, ex ports.Exchange) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key(runID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(runID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// History returns all exchanges recorded for the run, oldest first.
// An unknown run yields an empty history, not an error.
func (s *HistoryStore) History(ctx context.Context, runID string) ([]ports.Exchange, error) {
	items, err := s.client.LRange(ctx, s.key(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}

	history := make([]ports.Exchange, 0, len(items))
	for _, item := range items {
		var ex ports.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exchange: %w", err)
		}
		history = append(history, ex)
	}
	return history, nil
}

// Close closes the redis client.
func (s *HistoryStore) Close() error {
	return s.client.Close()
}

var _ ports.HistoryStore = (*HistoryStore)(nil)
