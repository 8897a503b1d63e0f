// Package config loads the server configuration from the environment.
//
// An optional .env file is read first with godotenv. Variables already set
// in the process environment win over the file, so a deployment can
// override any single value without editing it.
//
//	PORT            HTTP port                          (8080)
//	STORAGE_DRIVER  "sqlite" or "memory"               (sqlite)
//	DB_PATH         SQLite database file               (data/listings.db)
//	JWT_SECRET      HMAC key for tokens, >= 16 chars   (required)
//	TOKEN_TTL       token lifetime, Go duration        (1h)
//	BCRYPT_COST     bcrypt work factor, 4..31          (12)
//	COOKIE_SECURE   mark the session cookie HTTPS-only (false)
//	LOG_LEVEL       debug, info, warn or error         (info)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Port          int
	StorageDriver string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	CookieSecure  bool
	LogLevel      slog.Level
}

// Load reads envFiles (".env" when none are given; a missing file is not an
// error) and then the environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
		DBPath:        getEnv("DB_PATH", "data/listings.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %w", err))
	}
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "1h")); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	}
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "12")); err != nil {
		errs = append(errs, fmt.Errorf("BCRYPT_COST: %w", err))
	}
	if cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "false")); err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMemory, c.StorageDriver))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
