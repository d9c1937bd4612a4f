package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	TermStartLayout = "2006-01-02"
)

// DatabaseConfig конфигурация БД
type DatabaseConfig struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       int    `env:"DB_PORT" envDefault:"5432"`
	Username   string `env:"DB_USER"`
	Password   string `env:"DB_PASSWORD"`
	Name       string `env:"DB_NAME" envDefault:"curriculum"`
	SSLMode    string `env:"DB_SSLMODE"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"curriculum.db"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Name, c.SSLMode,
	)
}

// Load загружает конфигурацию
func Load() (*Config, error) {
	// .env может отсутствовать
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = getSSLMode(cfg.Environment)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет обязательные параметры
func validate(cfg *Config) error {
	var errors []string

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Username == "" {
			errors = append(errors, "DB_USER is required")
		}
		if cfg.Database.Password == "" && cfg.Environment == "production" {
			errors = append(errors, "DB_PASSWORD is required in production")
		}
	case DriverSQLite:
		if cfg.Database.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required")
		}
	case DriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("STORE_DRIVER %q is not supported", cfg.Database.Driver))
	}

	if cfg.Calendar.TermStart == "" {
		errors = append(errors, "TERM_START is required")
	} else if start, err := time.Parse(TermStartLayout, cfg.Calendar.TermStart); err != nil {
		errors = append(errors, "TERM_START must be YYYY-MM-DD")
	} else if start.Weekday() != time.Monday {
		errors = append(errors, "TERM_START must be a Monday")
	}
	if _, err := time.LoadLocation(cfg.Calendar.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("TIMEZONE %q is unknown", cfg.Calendar.Timezone))
	}

	if cfg.Redis.URL != "" && cfg.Redis.LockTTL <= 0 {
		errors = append(errors, "LOCK_TTL must be positive")
	}

	if cfg.Bot.Enabled() && len(cfg.Bot.AdminIDs) == 0 {
		errors = append(errors, "ADMIN_IDS is required when BOT_TOKEN is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errors, ", "))
	}

	return nil
}

// getSSLMode возвращает режим SSL в зависимости от окружения
func getSSLMode(env string) string {
	if env == "production" {
		return "require" // В продакшене всегда SSL
	}
	return "disable"
}
