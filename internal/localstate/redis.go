package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage holds a replica for a server-side session, keyed
// "<namespace>:<ownerID>". No TTL: the replica survives until cleared.
type RedisStorage[T any] struct {
	client *redis.Client
	key    string
}

func NewRedisStorage[T any](client *redis.Client, namespace, ownerID string) *RedisStorage[T] {
	return &RedisStorage[T]{
		client: client,
		key:    fmt.Sprintf("%s:%s", namespace, ownerID),
	}
}

func (s *RedisStorage[T]) Load(ctx context.Context) ([]T, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", s.key, err)
	}
	return env.Items, nil
}

func (s *RedisStorage[T]) Save(ctx context.Context, items []T) error {
	data, err := json.Marshal(envelope[T]{Items: items})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
