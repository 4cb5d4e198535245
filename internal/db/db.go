package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tracking-service/internal/config"
)

// New opens the route-cache database. The cache is optional: callers only
// reach here when a DSN is configured.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.Environment == "development" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	database, err := gorm.Open(postgres.Open(cfg.Cache.DSN), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("access underlying pool: %w", err)
	}
	if cfg.Cache.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Cache.MaxOpenConns)
	}
	if cfg.Cache.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Cache.MaxIdleConns)
	}
	if cfg.Cache.ConnMaxLifetime != "" {
		if lifetime, err := time.ParseDuration(cfg.Cache.ConnMaxLifetime); err == nil {
			sqlDB.SetConnMaxLifetime(lifetime)
		}
	}

	if err := runMigrations(database); err != nil {
		return nil, err
	}

	log.Info().Msg("route cache database ready")
	return database, nil
}
