package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/redis/go-redis/v9"
)

// redisCmdable is the part of *redis.Client the session needs.
type redisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSession struct {
	client redisCmdable
	tabID  string
	ttl    time.Duration
}

// NewRedisSession scopes keys to the tab as session:<tab>:<key>.
func NewRedisSession(client redisCmdable, tabID string, ttl time.Duration) SessionStorage {
	return &redisSession{client: client, tabID: tabID, ttl: ttl}
}

func (s *redisSession) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *redisSession) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", entity.ErrSessionKeyAbsent
	}
	return v, err
}

func (s *redisSession) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisSession) key(key string) string {
	return fmt.Sprintf("session:%s:%s", s.tabID, key)
}
