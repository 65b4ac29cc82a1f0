package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port            string        `env:"PORT"              envDefault:"3000"`
	Environment     string        `env:"ENV"               envDefault:"development"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"      envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"     envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL"         envDefault:"info"`
	MapsDir         string        `env:"MAPS_DIR"          envDefault:"data/maps"`
	CatalogDBPath   string        `env:"CATALOG_DB_PATH"   envDefault:"data/db/catalog.db"`
	PresetsPath     string        `env:"PRESETS_PATH"      envDefault:"data/presets.yaml"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL"`
	DefaultSelector string        `env:"DEFAULT_SELECTOR"  envDefault:".room-group, .room, .label"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"      envSeparator:","`
}

// Load загружает конфигурацию из переменных окружения.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}
	return &cfg, nil
}
