package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// changeChannel is the pub/sub channel carrying change events for a key.
// Redis delivers published messages back to subscribers on the same
// client, so same-process watchers get the synthetic in-context event and
// other processes get the cross-context one through a single mechanism.
func changeChannel(key string) string {
	return keyNamespace + ":changes:" + key
}

// RedisStore persists values in Redis and broadcasts change events over
// pub/sub.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if err := s.client.Publish(ctx, changeChannel(key), "saved").Err(); err != nil {
		return fmt.Errorf("saved %s but failed to publish change: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if err := s.client.Publish(ctx, changeChannel(key), "removed").Err(); err != nil {
		return fmt.Errorf("removed %s but failed to publish change: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *RedisStore) Watch(key string) (<-chan Event, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := s.client.Subscribe(ctx, changeChannel(key))

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case events <- Event{Key: key}:
				default:
					// Watcher already has a pending wake-up.
				}
			}
		}
	}()

	return events, func() {
		cancel()
		_ = pubsub.Close()
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
