package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Env        string
	ServerPort int
	LogLevel   string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	TokenTTL  time.Duration

	UploadDir      string // Base path for stored images
	MaxUploadBytes int64

	CORSAllowedOrigins []string

	JanitorSchedule string // cron spec, e.g. "@every 1h"
	EventRetention  time.Duration
	DiskAlertPct    float64 // upload volume usage that raises a storage.low event; 0 disables

	SuperAdmin SuperAdmin
}

// SuperAdmin describes the bootstrap administrator account.
// An empty password disables seeding on server start.
type SuperAdmin struct {
	Username string
	Email    string
	Password string
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.HasPrefix(strings.ToLower(c.Env), "prod")
}

// Load loads configuration from environment variables (and an optional .env file) or sets defaults.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForTools loads the configuration without requiring the settings only the HTTP server needs.
func LoadForTools() *Config {
	return read()
}

func read() *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Env:                v.GetString("APP_ENV"),
		ServerPort:         v.GetInt("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisURL:           v.GetString("REDIS_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           v.GetDuration("TOKEN_TTL"),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		JanitorSchedule:    v.GetString("JANITOR_SCHEDULE"),
		EventRetention:     v.GetDuration("EVENT_RETENTION"),
		DiskAlertPct:       v.GetFloat64("DISK_ALERT_PERCENT"),
		SuperAdmin: SuperAdmin{
			Username: v.GetString("SUPERADMIN_USERNAME"),
			Email:    v.GetString("SUPERADMIN_EMAIL"),
			Password: v.GetString("SUPERADMIN_PASSWORD"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "blog.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("TOKEN_TTL", time.Hour)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 2<<20)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("JANITOR_SCHEDULE", "@every 1h")
	v.SetDefault("EVENT_RETENTION", 30*24*time.Hour)
	v.SetDefault("DISK_ALERT_PERCENT", 90.0)
	v.SetDefault("SUPERADMIN_USERNAME", "superadmin")
	v.SetDefault("SUPERADMIN_EMAIL", "superadmin@example.com")
	v.SetDefault("SUPERADMIN_PASSWORD", "")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT %d", c.ServerPort)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid TOKEN_TTL %s", c.TokenTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid MAX_UPLOAD_BYTES %d", c.MaxUploadBytes)
	}
	if c.DiskAlertPct < 0 || c.DiskAlertPct > 100 {
		return fmt.Errorf("invalid DISK_ALERT_PERCENT %g", c.DiskAlertPct)
	}
	return nil
}

// splitList turns a comma separated value into a trimmed, non-empty list.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
