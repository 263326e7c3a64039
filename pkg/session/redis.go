// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "adstitch:session"

// RedisStore keeps sessions in Redis/Valkey with native TTL expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis at redisURL
// (e.g. redis://localhost:6379/0) and pings it once.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used in tests.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string {
	return redisKeyPrefix + ":" + id
}

func (r *RedisStore) GetOrCreate(ctx context.Context, id, originURL string) (Session, error) {
	if s, ok, err := r.Get(ctx, id); err != nil {
		return Session{}, err
	} else if ok {
		return s, nil
	}
	now := time.Now()
	s := Session{
		ID:           id,
		OriginURL:    originURL,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := r.set(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, bool, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("redis GET: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Touch(ctx context.Context, id string) error {
	s, ok, err := r.Get(ctx, id)
	if err != nil || !ok {
		return err
	}
	s.LastAccessed = time.Now()
	return r.set(ctx, s)
}

func (r *RedisStore) Remove(ctx context.Context, id string) (Session, bool, error) {
	s, ok, err := r.Get(ctx, id)
	if err != nil || !ok {
		return Session{}, false, err
	}
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return Session{}, false, fmt.Errorf("redis DEL: %w", err)
	}
	return s, true, nil
}

// CleanupExpired is a no-op. Redis expires keys via the TTL set on write.
func (r *RedisStore) CleanupExpired(_ context.Context) error {
	return nil
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	// KEYS is O(N). Acceptable for the health endpoint at current
	// session volumes; switch to SCAN if that changes.
	keys, err := r.client.Keys(ctx, redisKeyPrefix+":*").Result()
	if err != nil {
		return 0, fmt.Errorf("redis KEYS: %w", err)
	}
	return len(keys), nil
}

func (r *RedisStore) set(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}
