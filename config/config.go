package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	DatabaseURL    string `env:"DATABASE_URL,required" validate:"required"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1,max=100"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	SessionSecret  string   `env:"SESSION_SECRET,required" validate:"required,min=32"`
	BcryptCost     int      `env:"BCRYPT_COST" envDefault:"12" validate:"min=10,max=15"`
	CookieDomain   string   `env:"COOKIE_DOMAIN"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is the client IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,ip|cidr"`

	RedisURL           string `env:"REDIS_URL"`
	LoginRateLimit     int    `env:"LOGIN_RATE_LIMIT" envDefault:"10" validate:"min=1,max=1000"`
	LoginRateWindowSec int    `env:"LOGIN_RATE_WINDOW_SEC" envDefault:"60" validate:"min=1,max=86400"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	ListingTTLDays int    `env:"LISTING_TTL_DAYS" envDefault:"30" validate:"min=1,max=365"`
	SweepCron      string `env:"SWEEP_CRON" envDefault:"@every 1h" validate:"required"`
	SweepBatchSize int    `env:"SWEEP_BATCH_SIZE" envDefault:"500" validate:"min=1,max=10000"`
}

// Load reads configuration from the environment. A .env file in the working
// directory, if present, is loaded first without overriding real variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
