package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the volatile Store used for the request idempotency cache.
// SET NX with TTL is the atomic decision point; expiry is native to redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, record Record, now time.Time) (bool, Record, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return false, Record{}, err
	}

	stored, err := s.client.SetNX(ctx, record.Key, payload, s.ttl(record, now)).Result()
	if err != nil {
		return false, Record{}, err
	}
	if stored {
		return true, Record{}, nil
	}

	existing, found, err := s.get(ctx, record.Key)
	if err != nil {
		return false, Record{}, err
	}
	if !found {
		// Key expired between SET NX and GET; treat the claim as won.
		return true, Record{}, nil
	}
	return false, existing, nil
}

func (s *RedisStore) Put(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, record.Key, payload, s.ttl(record, time.Now().UTC())).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string, _ time.Time) (Record, bool, error) {
	return s.get(ctx, key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) ttl(record Record, now time.Time) time.Duration {
	ttl := record.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisStore) get(ctx context.Context, key string) (Record, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}
