package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists register sessions. Load returns a fresh register when none is stored.
type Store interface {
	Load(ctx context.Context, workspaceID, registerID string) (*Register, error)
	Save(ctx context.Context, r *Register) error
}

func clone(r *Register) (*Register, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out Register
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MemoryStore keeps registers in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	registers map[string]*Register
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{registers: make(map[string]*Register)}
}

func memoryKey(workspaceID, registerID string) string {
	return workspaceID + "/" + registerID
}

func (s *MemoryStore) Load(_ context.Context, workspaceID, registerID string) (*Register, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registers[memoryKey(workspaceID, registerID)]
	if !ok {
		return NewRegister(workspaceID, registerID), nil
	}
	return clone(r)
}

func (s *MemoryStore) Save(_ context.Context, r *Register) error {
	c, err := clone(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[memoryKey(r.WorkspaceID, r.ID)] = c
	return nil
}

// RedisStore keeps registers in Redis so sessions survive restarts and are
// shared between instances. Idle registers expire after ttl.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(workspaceID, registerID string) string {
	return fmt.Sprintf("zervos:pos:register:%s:%s", workspaceID, registerID)
}

func (s *RedisStore) Load(ctx context.Context, workspaceID, registerID string) (*Register, error) {
	data, err := s.rdb.Get(ctx, redisKey(workspaceID, registerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewRegister(workspaceID, registerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load register: %w", err)
	}
	var r Register
	if err := json.Unmarshal(data, &r); err != nil {
		// A corrupt session is replaced rather than blocking the register.
		return NewRegister(workspaceID, registerID), nil
	}
	return &r, nil
}

func (s *RedisStore) Save(ctx context.Context, r *Register) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKey(r.WorkspaceID, r.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save register: %w", err)
	}
	return nil
}
