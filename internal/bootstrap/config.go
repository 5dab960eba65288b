// Package bootstrap assembles the ledger services from environment configuration.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/domain/inventory"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	CounterFile     = "file"
	CounterPostgres = "postgres"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	Storage     string
	DatabaseURL string
	MaxConns    int

	CounterStore string
	CounterPath  string
	Numbering    corenumerator.Config

	JWTSecret   string
	JWTTTL      time.Duration
	RequireAuth bool

	Classifier inventory.ClassifierConfig
}

// LoadConfig reads envFiles (a missing file is ignored) and then the environment.
func LoadConfig(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	numbering := corenumerator.DefaultConfig()
	numbering.Prefix = getEnv("INVOICE_PREFIX", numbering.Prefix)
	numbering.PadWidth = getEnvInt("INVOICE_PAD_WIDTH", numbering.PadWidth)

	cfg := Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("APP_PORT", "8080"),
		Storage:      getEnv("STORAGE", StorageMemory),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		MaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		CounterStore: getEnv("COUNTER_STORE", CounterFile),
		CounterPath:  getEnv("COUNTER_FILE", "invoice_counter.json"),
		Numbering:    numbering,
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTTTL:       getEnvDuration("JWT_TTL", 12*time.Hour),
		RequireAuth:  getEnvBool("REQUIRE_AUTH", false),
		Classifier: inventory.ClassifierConfig{
			OutOfStockRule: os.Getenv("OUT_OF_STOCK_RULE"),
			LowStockRule:   os.Getenv("LOW_STOCK_RULE"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations that cannot be wired.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	switch c.CounterStore {
	case CounterFile, CounterPostgres:
	default:
		return fmt.Errorf("unknown COUNTER_STORE %q", c.CounterStore)
	}
	if c.Storage == StoragePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for postgres storage")
	}
	if c.CounterStore == CounterPostgres && c.Storage != StoragePostgres {
		return fmt.Errorf("COUNTER_STORE=postgres requires STORAGE=postgres")
	}
	if c.RequireAuth && c.JWTSecret == "" {
		return fmt.Errorf("REQUIRE_AUTH needs JWT_SECRET")
	}
	if c.Numbering.Prefix == "" {
		return fmt.Errorf("INVOICE_PREFIX must not be empty")
	}
	return nil
}

// Development reports whether logs should be human-readable.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
