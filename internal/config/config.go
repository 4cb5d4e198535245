package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type TrackingConfig struct {
	PollInterval time.Duration
	RemountDelay time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	Upstream    UpstreamConfig
	Cache       CacheConfig
	Auth        AuthConfig
	Tracking    TrackingConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Upstream: UpstreamConfig{
			BaseURL: v.GetString("UPSTREAM_BASE_URL"),
			Timeout: v.GetDuration("UPSTREAM_TIMEOUT"),
		},
		Cache: CacheConfig{
			DSN:             v.GetString("CACHE_DSN"),
			MaxOpenConns:    v.GetInt("CACHE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("CACHE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("CACHE_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Tracking: TrackingConfig{
			PollInterval: v.GetDuration("POLL_INTERVAL"),
			RemountDelay: v.GetDuration("REMOUNT_DELAY"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Upstream.BaseURL == "" {
		// Local platform API default, matching the rest of the admin stack.
		cfg.Upstream.BaseURL = "http://localhost:3000"
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Tracking.PollInterval <= 0 {
		cfg.Tracking.PollInterval = 5 * time.Second
	}
	if cfg.Tracking.RemountDelay <= 0 {
		cfg.Tracking.RemountDelay = 200 * time.Millisecond
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
