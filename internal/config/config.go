// Package config collects the environment the server needs at startup.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob read from the environment. Anything optional
// carries a default; anything required fails Load.
type Config struct {
	Port        string
	DatabaseURL string

	NATSURL      string
	NATSCredFile string
	NATSUser     string
	NATSPassword string

	JWTSecret string
	JWTIssuer string

	JWTTTL          time.Duration
	RefreshTokenTTL time.Duration

	// Cron expression gating the retention sweep, checked hourly.
	RetentionCron string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	cfg := Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DB_URL"),
		NATSURL:         os.Getenv("NATS_URL"),
		NATSCredFile:    os.Getenv("NATS_CRED"),
		NATSUser:        os.Getenv("NATS_USER"),
		NATSPassword:    os.Getenv("NATS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       getenv("JWT_ISS", "lechange"),
		JWTTTL:          5 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		RetentionCron:   getenv("RETENTION_CRON", "0 * * * *"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("internal/config: DB_URL environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("internal/config: JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
