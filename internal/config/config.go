// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Geocoder GeocoderConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	// SessionSecret signs the session cookie set by the login service.
	SessionSecret string `env:"SESSION_SECRET" envDefault:"dev-secret-change-me"`
}

// DatabaseConfig holds connection settings. Driver is "postgres" or
// "sqlite"; for sqlite only Path is used.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"membership"`
	Password string `env:"DB_PASSWORD" envDefault:"membership123"`
	DBName   string `env:"DB_NAME" envDefault:"membership"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Path     string `env:"DB_PATH" envDefault:"membership.db"`
	Debug    bool   `env:"DB_DEBUG" envDefault:"false"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool   `env:"DEV" envDefault:"true"`
	Migrations bool   `env:"MIGRATIONS" envDefault:"false"`
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"uploads"`
}

// GeocoderConfig configures the Nominatim lookups.
type GeocoderConfig struct {
	Enabled    bool          `env:"GEOCODER_ENABLED" envDefault:"true"`
	BaseURL    string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
	UserAgent  string        `env:"GEOCODER_USER_AGENT" envDefault:"go-membership"`
	Timeout    time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"5s"`
	RatePerSec float64       `env:"GEOCODER_RATE" envDefault:"1"`
	CacheTTL   time.Duration `env:"GEOCODER_CACHE_TTL" envDefault:"720h"`
	CacheSize  int           `env:"GEOCODER_CACHE_SIZE" envDefault:"10000"`
}

// RedisConfig is optional; without an address the geocode cache stays in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// PaymentsConfig holds the fee amounts charged per payment type.
type PaymentsConfig struct {
	MemberFee   decimal.Decimal `env:"MEMBER_FEE" envDefault:"300"`
	BrandingFee decimal.Decimal `env:"BRANDING_FEE" envDefault:"100"`
	// WebhookToken must be presented by the gateway on status callbacks.
	WebhookToken string `env:"PAYMENT_WEBHOOK_TOKEN"`
}

// JobsConfig schedules the batch geocoding of addresses without coordinates.
type JobsConfig struct {
	GeocodeSchedule string        `env:"GEOCODE_SCHEDULE" envDefault:"@every 1h"`
	GeocodeBatch    int           `env:"GEOCODE_BATCH" envDefault:"50"`
	GeocodePause    time.Duration `env:"GEOCODE_PAUSE" envDefault:"5s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Jobs.GeocodeBatch <= 0 {
		return nil, fmt.Errorf("GEOCODE_BATCH must be positive, got %d", cfg.Jobs.GeocodeBatch)
	}
	return &cfg, nil
}
