package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tracking-service/internal/model"
)

type routeSourceFunc func(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error)

func (f routeSourceFunc) Route(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
	return f(ctx, deviceID, date)
}

type memoryRouteCache struct {
	mu     sync.Mutex
	routes map[model.RouteKey]*model.HistoricalRouteData
}

func newMemoryRouteCache() *memoryRouteCache {
	return &memoryRouteCache{routes: make(map[model.RouteKey]*model.HistoricalRouteData)}
}

func (c *memoryRouteCache) Get(ctx context.Context, key model.RouteKey) (*model.HistoricalRouteData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes[key], nil
}

func (c *memoryRouteCache) Put(ctx context.Context, route *model.HistoricalRouteData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[route.Key()] = route
	return nil
}

func TestHistoryFetcherCachesPastDates(t *testing.T) {
	calls := 0
	source := routeSourceFunc(func(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
		calls++
		return routeData(deviceID, date, 3), nil
	})

	fetcher := NewHistoryFetcher(source, newMemoryRouteCache(), zerolog.Nop())
	fetcher.now = func() time.Time { return time.Date(2025, 9, 27, 12, 0, 0, 0, time.UTC) }

	key := model.RouteKey{DeviceID: "D1", Date: "2025-09-25"}
	for i := 0; i < 3; i++ {
		route, err := fetcher.Fetch(context.Background(), key)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if route.Date != "2025-09-25" {
			t.Fatalf("wrong route %+v", route)
		}
	}
	if calls != 1 {
		t.Errorf("upstream called %d times for a cached past date, want 1", calls)
	}
}

func TestHistoryFetcherNeverCachesToday(t *testing.T) {
	calls := 0
	source := routeSourceFunc(func(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
		calls++
		return routeData(deviceID, date, 3), nil
	})

	fetcher := NewHistoryFetcher(source, newMemoryRouteCache(), zerolog.Nop())
	fetcher.now = func() time.Time { return time.Date(2025, 9, 27, 12, 0, 0, 0, time.UTC) }

	key := model.RouteKey{DeviceID: "D1", Date: "2025-09-27"}
	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(context.Background(), key); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("upstream called %d times for today, want 2 (no caching)", calls)
	}
}

func TestHistoryFetcherNilCache(t *testing.T) {
	source := routeSourceFunc(func(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
		return routeData(deviceID, date, 2), nil
	})

	fetcher := NewHistoryFetcher(source, nil, zerolog.Nop())
	if _, err := fetcher.Fetch(context.Background(), model.RouteKey{DeviceID: "D1", Date: "2025-09-25"}); err != nil {
		t.Fatalf("Fetch without cache: %v", err)
	}
}

func TestHistoryFetcherPropagatesErrors(t *testing.T) {
	wantErr := errors.New("upstream down")
	source := routeSourceFunc(func(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
		return nil, wantErr
	})

	fetcher := NewHistoryFetcher(source, newMemoryRouteCache(), zerolog.Nop())
	if _, err := fetcher.Fetch(context.Background(), model.RouteKey{DeviceID: "D1", Date: "2025-09-25"}); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}
