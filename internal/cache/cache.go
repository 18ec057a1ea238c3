// Package cache keeps computed availability in Redis.
//
// Keys embed a per-workspace version counter. Bumping the counter makes every
// older entry unreachable; stale entries expire through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"zervos/internal/events"
	"zervos/internal/metrics"
)

const keyPrefix = "zervos:availability"

// AvailabilityCache is a read-through cache. A nil cache, a nil client or a
// non-positive TTL disables it.
type AvailabilityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func New(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "cache").Logger()
	return &AvailabilityCache{rdb: rdb, ttl: ttl, logger: &l}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func versionKey(workspaceID string) string {
	return fmt.Sprintf("%s:version:%s", keyPrefix, workspaceID)
}

func (c *AvailabilityCache) version(ctx context.Context, workspaceID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(workspaceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *AvailabilityCache) key(ctx context.Context, workspaceID, kind, params string) (string, error) {
	v, err := c.version(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:v%d:%s:%s", keyPrefix, workspaceID, v, kind, params), nil
}

// Get loads a cached value into out and reports whether it was found.
func (c *AvailabilityCache) Get(ctx context.Context, workspaceID, kind, params string, out any) bool {
	if !c.enabled() {
		return false
	}
	key, err := c.key(ctx, workspaceID, kind, params)
	if err != nil {
		c.logger.Debug().Err(err).Msg("cache version lookup failed")
		metrics.IncCache("error")
		return false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		metrics.IncCache("miss")
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		metrics.IncCache("miss")
		return false
	}
	metrics.IncCache("hit")
	return true
}

// Set stores val under the current workspace version.
func (c *AvailabilityCache) Set(ctx context.Context, workspaceID, kind, params string, val any) {
	if !c.enabled() {
		return
	}
	key, err := c.key(ctx, workspaceID, kind, params)
	if err != nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate drops every cached entry of a workspace.
func (c *AvailabilityCache) Invalidate(ctx context.Context, workspaceID string) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Incr(ctx, versionKey(workspaceID)).Err()
}

// Attach invalidates a workspace whenever any event names it.
func (c *AvailabilityCache) Attach(bus *events.Bus) {
	if !c.enabled() || bus == nil {
		return
	}
	bus.SubscribeAll(func(e events.Event) error {
		if e.WorkspaceID == "" {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return c.Invalidate(ctx, e.WorkspaceID)
	})
}
