package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "settle:idem:"

	// pendingMarker locks a key while the first request is still in flight,
	// so a duplicate arriving mid-processing replays nothing stale.
	pendingMarker = "processing"
)

// IdempotencyStore implements usecase.IdempotencyStore on Redis. Keys carry a
// TTL; a replayed request within the window gets the recorded response back.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func idempotencyKey(key string) string {
	return idempotencyPrefix + key
}

// CheckAndSet atomically claims a key. When the key already holds a recorded
// response (or the pending marker), it returns (true, stored, nil) and the
// caller must not re-execute the operation. A nil response claims the key
// with the pending marker only.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	k := idempotencyKey(key)

	stored, err := s.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		return true, stored, nil
	case !errors.Is(err, redis.Nil):
		return false, nil, err
	}

	if response != nil {
		if err := s.client.Set(ctx, k, response, ttl).Err(); err != nil {
			return false, nil, err
		}

		return false, nil, nil
	}

	claimed, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
	if err != nil {
		return false, nil, err
	}

	if !claimed {
		// Lost the race; surface whatever the winner stored.
		stored, err := s.client.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return false, nil, err
		}

		return true, stored, nil
	}

	return false, nil, nil
}

// Update replaces the pending marker with the final recorded response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, idempotencyKey(key), response, ttl).Err()
}
