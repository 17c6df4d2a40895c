// Package contextstore keeps per-step workflow context in an in-process LRU.
package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iaamar/SoftLight-UIStateAgent/internal/application/port/output"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultMaxSize = 512
	defaultTTL     = 30 * time.Minute
)

var _ output.ContextStorePort = (*Store)(nil)

type Config struct {
	// MaxSize is the maximum number of entries kept.
	MaxSize int
	// TTL applies when Save is called with a non-positive ttl.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{MaxSize: defaultMaxSize, TTL: defaultTTL}
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

type Store struct {
	cache *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time
}

func New(cfg Config) (*Store, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	cache, err := lru.New[string, entry](cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("create context cache: %w", err)
	}
	return &Store{cache: cache, ttl: cfg.TTL, now: time.Now}, nil
}

// StepKey is the key under which step n of a workflow is stored.
func StepKey(workflowID string, step int) string {
	return fmt.Sprintf("%s:step:%d", workflowID, step)
}

func (s *Store) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode context %q: %w", key, err)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	s.cache.Add(key, entry{payload: payload, expiresAt: s.now().Add(ttl)})
	return nil
}

// Load decodes the value stored under key into dst. Expired entries are
// evicted and reported as missing.
func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(e.payload, dst); err != nil {
		return false, fmt.Errorf("decode context %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
