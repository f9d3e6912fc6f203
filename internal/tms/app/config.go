package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
)

// Refresh token backends.
const (
	RefreshStoreSQLite = "sqlite"
	RefreshStoreRedis  = "redis"
)

type Config struct {
	JWTSecret       string        // Required: base64 HS256 key, at least 32 bytes decoded
	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 168h)
	RefreshStore    string        // Optional: sqlite or redis (default: sqlite)
	RefreshRotation string        // Optional: additive or single-use (default: additive)
	RedisURL        string        // Optional: used when RefreshStore is redis
	RedisPrefix     string        // Optional: key prefix for refresh tokens (default: refresh_tokens)

	DatabaseFile string // Optional: path to SQLite database file (default: ./tms.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	AdminUsername string // Optional: seed admin account, created on startup if missing
	AdminEmail    string
	AdminPassword string // Optional: generated and logged once when empty

	Env                   string        // Environment (dev, staging, prod) (default: dev)
	LogLevel              string        // Log level (debug, info, warn, error) (default: info)
	LogFormat             string        // Log format (json, text) (default: json)
	Port                  int           // HTTP server port (default: 8080)
	TrustedProxies        []string      // CIDRs whose X-Forwarded-For is believed (default: none)
	ShutdownGracePeriod   time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval  time.Duration // Housekeeping interval (default: 1h)
	HousekeepingRetention time.Duration // How long expired refresh tokens are kept (default: 24h)
}

func LoadConfig() Config {
	return Config{
		JWTSecret:       os.Getenv("TMS_JWT_SECRET"),
		AccessTokenTTL:  getEnvDurationOrDefault("TMS_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("TMS_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		RefreshStore:    strings.ToLower(getEnvOrDefault("TMS_REFRESH_STORE", RefreshStoreSQLite)),
		RefreshRotation: getEnvOrDefault("TMS_REFRESH_ROTATION", string(service.RotationAdditive)),
		RedisURL:        getEnvOrDefault("TMS_REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:     getEnvOrDefault("TMS_REDIS_PREFIX", "refresh_tokens"),

		DatabaseFile: getEnvOrDefault("TMS_DATABASE_FILE", "tms.db"),
		PepperFile:   getEnvOrDefault("TMS_PEPPER_FILE", "pepper"),

		AdminUsername: os.Getenv("TMS_ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("TMS_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("TMS_ADMIN_PASSWORD"),

		Env:                   getEnvOrDefault("ENV", "dev"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                  getEnvIntOrDefault("PORT", 8080),
		TrustedProxies:        getEnvListOrDefault("TMS_TRUSTED_PROXIES", nil),
		ShutdownGracePeriod:   getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval:  getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		HousekeepingRetention: getEnvDurationOrDefault("HOUSEKEEPING_RETENTION", service.DefaultExpiredRetention),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("TMS_JWT_SECRET is required"))
	} else if _, err := jwtx.NewHS256Codec(c.JWTSecret); err != nil {
		errs = append(errs, fmt.Errorf("TMS_JWT_SECRET: %w", err))
	}

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("TMS_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("TMS_REFRESH_TOKEN_TTL must be positive"))
	}
	if c.HousekeepingRetention < 0 {
		errs = append(errs, errors.New("HOUSEKEEPING_RETENTION must not be negative"))
	}

	switch c.RefreshStore {
	case RefreshStoreSQLite:
	case RefreshStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("TMS_REDIS_URL is required for the redis refresh store"))
		}
	default:
		errs = append(errs, fmt.Errorf("TMS_REFRESH_STORE must be %q or %q, got %q", RefreshStoreSQLite, RefreshStoreRedis, c.RefreshStore))
	}

	if _, err := service.ParseRotationMode(c.RefreshRotation); err != nil {
		errs = append(errs, fmt.Errorf("TMS_REFRESH_ROTATION: %w", err))
	}

	if c.AdminUsername != "" && c.AdminEmail == "" {
		errs = append(errs, errors.New("TMS_ADMIN_EMAIL is required with TMS_ADMIN_USERNAME"))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TMS_TRUSTED_PROXIES: %w", err))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
