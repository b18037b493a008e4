// Package config reads process configuration from the environment, with
// optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the api binary needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// MySQLDSN is the gorm/mysql connection string.
	MySQLDSN string
	// JWTSecret signs login tokens.
	JWTSecret string
	// RateLimitRPM is the per-client requests-per-minute budget on the
	// sensitive endpoints (login, message post).
	RateLimitRPM int
	// SeedDemoData populates an empty database with the demo dataset.
	SeedDemoData bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over .env entries.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getenv("PORT", "5025"),
		MySQLDSN:     os.Getenv("MYSQL_DSN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RateLimitRPM: 60,
		SeedDemoData: os.Getenv("SEED_DEMO_DATA") == "true",
	}

	if cfg.MySQLDSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPM: %q", v)
		}
		cfg.RateLimitRPM = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
