package storage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Darksider96/Kanban-Dashboard/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ViewCache, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return NewViewCache(rc, ttl), m
}

func sampleView() domain.BoardView {
	return domain.BoardView{
		ID:        "b1",
		StartupID: "s1",
		Columns: []domain.ColumnView{
			{ID: "c1", Name: "Todo", BoardID: "b1", Tasks: []domain.Task{{ID: "t1", Title: "x", ColumnID: "c1"}}},
		},
	}
}

func TestViewCacheBoardViewRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok := cache.LoadBoardView(ctx, "s1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.StoreBoardView(ctx, "s1", sampleView())

	got, ok := cache.LoadBoardView(ctx, "s1")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.ID != "b1" || len(got.Columns) != 1 || len(got.Columns[0].Tasks) != 1 {
		t.Fatalf("cached view mangled: %+v", got)
	}
}

func TestViewCacheStartupTasksRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	tasks := []domain.Task{{ID: "t1", ColumnID: "c1"}, {ID: "t2", ColumnID: "c2"}}
	cache.StoreStartupTasks(ctx, "s1", tasks)

	got, ok := cache.LoadStartupTasks(ctx, "s1")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
}

func TestViewCacheInvalidateRemovesBothKeys(t *testing.T) {
	cache, m := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.StoreBoardView(ctx, "s1", sampleView())
	cache.StoreStartupTasks(ctx, "s1", []domain.Task{{ID: "t1"}})

	cache.Invalidate(ctx, "s1")

	if m.Exists(boardViewKey("s1")) || m.Exists(startupTasksKey("s1")) {
		t.Fatal("invalidate left keys behind")
	}
	if _, ok := cache.LoadBoardView(ctx, "s1"); ok {
		t.Fatal("board view served after invalidation")
	}
}

func TestViewCacheCorruptedPayloadDropsKey(t *testing.T) {
	cache, m := newTestCache(t, time.Minute)
	ctx := context.Background()

	if err := m.Set(boardViewKey("s1"), "not-json"); err != nil {
		t.Fatalf("seed corrupted payload: %v", err)
	}
	if _, ok := cache.LoadBoardView(ctx, "s1"); ok {
		t.Fatal("expected miss on corrupted payload")
	}
	if m.Exists(boardViewKey("s1")) {
		t.Fatal("corrupted key not dropped")
	}
}

func TestViewCacheZeroTTLDisablesStore(t *testing.T) {
	cache, m := newTestCache(t, 0)
	ctx := context.Background()

	cache.StoreBoardView(ctx, "s1", sampleView())
	if m.Exists(boardViewKey("s1")) {
		t.Fatal("store should be a no-op with zero TTL")
	}
}

func TestViewCacheNilClientIsSafe(t *testing.T) {
	cache := NewViewCache(nil, time.Minute)
	ctx := context.Background()

	cache.StoreBoardView(ctx, "s1", sampleView())
	if _, ok := cache.LoadBoardView(ctx, "s1"); ok {
		t.Fatal("nil client should always miss")
	}
	cache.Invalidate(ctx, "s1")
}
