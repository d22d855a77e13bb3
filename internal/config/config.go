package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBPath           string
	LogLevel         string
	EventWorkerCount int
	EventQueueSize   int
	EventBufferSize  int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:             envOr("ADDR", ":8080"),
		DBPath:           envOr("DB_PATH", "file:wartest.db"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		EventWorkerCount: envIntOr("EVENT_WORKER_COUNT", 2),
		EventQueueSize:   envIntOr("EVENT_QUEUE_SIZE", 64),
		EventBufferSize:  envIntOr("EVENT_BUFFER_SIZE", 128),
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.EventWorkerCount <= 0 {
		return fmt.Errorf("EVENT_WORKER_COUNT must be positive, got %d", c.EventWorkerCount)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize)
	}
	if c.EventBufferSize < 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE cannot be negative, got %d", c.EventBufferSize)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
