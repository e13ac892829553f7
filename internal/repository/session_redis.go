package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "storefront:session:"

// SessionRedis keeps sessions as JSON values whose Redis TTL matches ExpiresAt.
type SessionRedis struct {
	rdb *redis.Client
}

func NewSessionRedis(rdb *redis.Client) *SessionRedis { return &SessionRedis{rdb: rdb} }

var _ SessionStore = (*SessionRedis)(nil)

// NewRedisClient builds a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *SessionRedis) Save(ctx context.Context, s models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("save session: already expired at %s", s.ExpiresAt.Format(time.RFC3339))
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get returns (nil, nil) on a miss, including keys Redis already expired.
func (r *SessionRedis) Get(ctx context.Context, id string) (*models.Session, error) {
	b, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decodeSession(b)
}

func (r *SessionRedis) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts sessions through key TTLs.
func (r *SessionRedis) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeSession(b []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
