package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

const (
	sessionKeyPrefix = "trivia:session:"

	// DefaultSessionTTL keeps a mirrored snapshot around if no removal arrives.
	DefaultSessionTTL = 2 * time.Hour
)

// RedisStore mirrors session snapshots for read-only consumers. The engine
// never reloads from it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store with DefaultSessionTTL
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: DefaultSessionTTL}
}

func sessionKey(code int) string {
	return sessionKeyPrefix + strconv.Itoa(code)
}

// SaveSession writes the snapshot under its invitation code.
func (rs *RedisStore) SaveSession(ctx context.Context, info protocol.SessionInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session %d: %w", info.InvitationCode, err)
	}
	return rs.client.Set(ctx, sessionKey(info.InvitationCode), data, rs.ttl).Err()
}

// LoadSession returns nil when no snapshot is stored for code.
func (rs *RedisStore) LoadSession(ctx context.Context, code int) (*protocol.SessionInfo, error) {
	data, err := rs.client.Get(ctx, sessionKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var info protocol.SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal session %d: %w", code, err)
	}
	return &info, nil
}

// DeleteSession drops the snapshot for code
func (rs *RedisStore) DeleteSession(ctx context.Context, code int) error {
	return rs.client.Del(ctx, sessionKey(code)).Err()
}

// SessionCodes lists the codes that currently have a snapshot.
func (rs *RedisStore) SessionCodes(ctx context.Context) ([]int, error) {
	var (
		codes  []int
		cursor uint64
	)
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			code, err := strconv.Atoi(key[len(sessionKeyPrefix):])
			if err != nil {
				continue
			}
			codes = append(codes, code)
		}
		if next == 0 {
			return codes, nil
		}
		cursor = next
	}
}

// SetSessionExpiration shortens or extends a snapshot's lifetime.
func (rs *RedisStore) SetSessionExpiration(ctx context.Context, code int, expiration time.Duration) error {
	return rs.client.Expire(ctx, sessionKey(code), expiration).Err()
}
