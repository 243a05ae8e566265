package uistate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checklist:ui:"

// RedisStore shares UI state between terminals through Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) currentKey() string { return s.prefix + "current" }

func (s *RedisStore) collapsedKey(taskID string) string {
	return s.prefix + strings.TrimSpace(taskID)
}

func (s *RedisStore) CurrentTask(ctx context.Context) (string, error) {
	v, err := s.client.Get(ctx, s.currentKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get current task: %w", err)
	}
	return v, nil
}

func (s *RedisStore) SetCurrentTask(ctx context.Context, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return s.client.Del(ctx, s.currentKey()).Err()
	}
	if err := s.client.Set(ctx, s.currentKey(), taskID, 0).Err(); err != nil {
		return fmt.Errorf("set current task: %w", err)
	}
	return nil
}

func (s *RedisStore) Collapsed(ctx context.Context, taskID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.collapsedKey(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read collapsed: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// SetCollapsed replaces the collapsed set atomically.
func (s *RedisStore) SetCollapsed(ctx context.Context, taskID string, ids []string) error {
	key := s.collapsedKey(taskID)
	ids = normalizeIDs(ids)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(ids) > 0 {
			members := make([]any, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			p.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write collapsed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
