package schemacache

import (
	"context"
	"fmt"
	"sync"
)

// Store is the key/value backend of the cache. Values are never overwritten and never expire.
type Store interface {
	// Add writes value under key only if key is absent and reports whether it wrote.
	Add(ctx context.Context, key, value string) (bool, error)

	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) (string, bool, error)

	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	entries sync.Map
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(_ context.Context, key, value string) (bool, error) {
	_, loaded := s.entries.LoadOrStore(key, value)
	return !loaded, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	_, ok := s.entries.Load(key)
	return ok, nil
}

// NewStore builds the store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown schema cache backend %q", cfg.Backend)
	}
}
