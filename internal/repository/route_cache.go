package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tracking-service/internal/model"
)

type routeCacheRow struct {
	DeviceID  string    `gorm:"column:device_id;primaryKey"`
	Date      string    `gorm:"column:date;primaryKey"`
	Payload   []byte    `gorm:"column:payload"`
	FetchedAt time.Time `gorm:"column:fetched_at"`
}

func (routeCacheRow) TableName() string { return "route_cache" }

// RouteCacheRepository persists historical routes for completed days.
// Route data for a past date is immutable upstream, so a hit can be served
// without touching the platform API.
type RouteCacheRepository struct {
	db *gorm.DB
}

func NewRouteCacheRepository(db *gorm.DB) *RouteCacheRepository {
	return &RouteCacheRepository{db: db}
}

// Get returns the cached route for key, or nil on a miss.
func (r *RouteCacheRepository) Get(ctx context.Context, key model.RouteKey) (*model.HistoricalRouteData, error) {
	var row routeCacheRow
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND date = ?", key.DeviceID, key.Date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("route cache lookup: %w", err)
	}

	var route model.HistoricalRouteData
	if err := json.Unmarshal(row.Payload, &route); err != nil {
		return nil, fmt.Errorf("route cache payload: %w", err)
	}
	return &route, nil
}

func (r *RouteCacheRepository) Put(ctx context.Context, route *model.HistoricalRouteData) error {
	payload, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("route cache encode: %w", err)
	}

	row := routeCacheRow{
		DeviceID:  route.DeviceID,
		Date:      route.Date,
		Payload:   payload,
		FetchedAt: time.Now(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("route cache store: %w", err)
	}
	return nil
}
