package timer

import (
	"context"
	"errors"
	"fmt"

	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

// Store persists timer snapshots. Load returns (nil, nil) when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// RedisStore keeps the snapshot as a single JSON string in Redis
type RedisStore struct {
	redis redis.Client
	key   string
}

// NewRedisStore creates a store under the adaptive timers key
func NewRedisStore(client redis.Client) *RedisStore {
	return &RedisStore{
		redis: client,
		key:   redis.AdaptiveTimersKey(),
	}
}

// Load reads and migrates the persisted snapshot
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.redis.Get(ctx, s.key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timer state: %w", err)
	}
	return Decode([]byte(raw))
}

// Save writes the snapshot without expiry
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key, string(data), 0); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}
	return nil
}
