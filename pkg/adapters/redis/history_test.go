package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/adapters/redis"
	"github.com/weftworks/weft/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.HistoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestHistoryStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	ports.RunHistoryStoreContract(t, store)
}

func TestHistoryStore_TTL(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Minute), redis.WithPrefix("test:history:"))

	err := store.Append(context.Background(), "run-ttl", ports.Exchange{Input: "hi", Output: "ok"})
	require.NoError(t, err)

	ttl := mr.TTL("test:history:run-ttl")
	assert.Equal(t, time.Minute, ttl)
}
