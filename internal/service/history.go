package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tracking-service/internal/model"
)

type RouteSource interface {
	Route(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error)
}

// RouteCache stores routes for completed days. Get returns nil on a miss.
type RouteCache interface {
	Get(ctx context.Context, key model.RouteKey) (*model.HistoricalRouteData, error)
	Put(ctx context.Context, route *model.HistoricalRouteData) error
}

// HistoryFetcher resolves one (device, day) route, reading through the
// cache for past dates. Today's route is still accruing points and is
// always fetched from the upstream.
type HistoryFetcher struct {
	source RouteSource
	cache  RouteCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewHistoryFetcher builds a fetcher; cache may be nil to disable caching.
func NewHistoryFetcher(source RouteSource, cache RouteCache, log zerolog.Logger) *HistoryFetcher {
	return &HistoryFetcher{
		source: source,
		cache:  cache,
		now:    time.Now,
		log:    log.With().Str("component", "history").Logger(),
	}
}

func (f *HistoryFetcher) Fetch(ctx context.Context, key model.RouteKey) (*model.HistoricalRouteData, error) {
	cacheable := f.cache != nil && model.IsPastDate(key.Date, f.now())

	if cacheable {
		cached, err := f.cache.Get(ctx, key)
		if err != nil {
			f.log.Warn().Err(err).Str("device", key.DeviceID).Str("date", key.Date).
				Msg("route cache lookup failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	route, err := f.source.Route(ctx, key.DeviceID, key.Date)
	if err != nil {
		return nil, err
	}

	if cacheable && len(route.Route) > 0 {
		if err := f.cache.Put(ctx, route); err != nil {
			f.log.Warn().Err(err).Str("device", key.DeviceID).Str("date", key.Date).
				Msg("route cache store failed")
		}
	}

	return route, nil
}
