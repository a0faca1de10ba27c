package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

// ViewCache is a Redis-backed cache for the expanded board view and the
// dashboard task fan-out, keyed by startup id. Redis failures never surface;
// reads fall back to the backing storage and suspect keys are dropped.
type ViewCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewViewCache creates a ViewCache with the provided Redis client and TTL.
func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ViewCache{redis: client, ttl: ttl}
}

func (c *ViewCache) LoadBoardView(ctx context.Context, startupID string) (*domain.BoardView, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	key := boardViewKey(startupID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var view domain.BoardView
	if err := json.Unmarshal(data, &view); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return &view, true
}

func (c *ViewCache) StoreBoardView(ctx context.Context, startupID string, view domain.BoardView) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardViewKey(startupID), data, c.ttl).Err()
}

func (c *ViewCache) LoadStartupTasks(ctx context.Context, startupID string) ([]domain.Task, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	key := startupTasksKey(startupID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *ViewCache) StoreStartupTasks(ctx context.Context, startupID string, tasks []domain.Task) {
	if c == nil || c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, startupTasksKey(startupID), data, c.ttl).Err()
}

func (c *ViewCache) Invalidate(ctx context.Context, startupID string) {
	if c == nil || c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardViewKey(startupID), startupTasksKey(startupID)).Result()
}

func boardViewKey(startupID string) string {
	return "board:" + startupID
}

func startupTasksKey(startupID string) string {
	return "dashtasks:" + startupID
}
