package pos

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zervos/internal/pricing"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	r, err := s.Load(ctx, "ws1", "front")
	require.NoError(t, err)
	require.Len(t, r.Tabs, 1)

	require.NoError(t, r.AddItem(pricing.Item{ID: "cut", Price: 100}))
	require.NoError(t, s.Save(ctx, r))

	// Mutating the caller's copy must not leak into the store.
	r.Clear()

	got, err := s.Load(ctx, "ws1", "front")
	require.NoError(t, err)
	require.Len(t, got.Active().Items, 1)
	assert.Equal(t, r.ActiveID, got.ActiveID)

	other, err := s.Load(ctx, "ws2", "front")
	require.NoError(t, err)
	assert.Empty(t, other.Active().Items)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, time.Hour)
	exerciseStore(t, s)

	mr.FastForward(2 * time.Hour)
	r, err := s.Load(context.Background(), "ws1", "front")
	require.NoError(t, err)
	assert.Empty(t, r.Active().Items)
}

func TestRedisStoreCorruptSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set(redisKey("ws1", "front"), "{not json"))
	r, err := NewRedisStore(rdb, time.Hour).Load(context.Background(), "ws1", "front")
	require.NoError(t, err)
	assert.Len(t, r.Tabs, 1)
}
