package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string
	LogLevel string

	// DatabaseURL is optional. Without it reads return empty results and writes fail.
	DatabaseURL string

	PlaidClientID   string
	PlaidSecret     string
	PlaidEnv        string
	PlaidClientName string

	DwollaKey    string
	DwollaSecret string
	DwollaEnv    string

	ShareableIDKey string
	BankCacheSize  int

	TemporalEnabled  bool
	TemporalHostPort string
}

// Load loads environment variables into the Config struct.
// Missing credentials never fail here; the flows that need them report it.
func Load() (*Config, error) {
	// Load from .env file if present (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PlaidClientID:    os.Getenv("PLAID_CLIENT_ID"),
		PlaidSecret:      os.Getenv("PLAID_SECRET"),
		PlaidEnv:         getEnv("PLAID_ENV", "sandbox"), // sandbox | development | production
		PlaidClientName:  getEnv("PLAID_CLIENT_NAME", "Finance Dashboard"),
		DwollaKey:        os.Getenv("DWOLLA_KEY"),
		DwollaSecret:     os.Getenv("DWOLLA_SECRET"),
		DwollaEnv:        getEnv("DWOLLA_ENV", "sandbox"), // sandbox | production
		ShareableIDKey:   os.Getenv("SHAREABLE_ID_KEY"),
		BankCacheSize:    getEnvInt("BANK_CACHE_SIZE", 1024),
		TemporalEnabled:  getEnvBool("TEMPORAL_ENABLED", false),
		TemporalHostPort: getEnv("TEMPORAL_HOST_PORT", "localhost:7233"),
	}

	return cfg, nil
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasPlaid() bool {
	return c.PlaidClientID != "" && c.PlaidSecret != ""
}

func (c *Config) HasDwolla() bool {
	return c.DwollaKey != "" && c.DwollaSecret != ""
}

// Missing lists the integrations that are not configured.
func (c *Config) Missing() []string {
	var missing []string
	if !c.HasDatabase() {
		missing = append(missing, "DATABASE_URL")
	}
	if !c.HasPlaid() {
		missing = append(missing, "PLAID_CLIENT_ID/PLAID_SECRET")
	}
	if !c.HasDwolla() {
		missing = append(missing, "DWOLLA_KEY/DWOLLA_SECRET")
	}
	return missing
}

// getEnv returns the env var value or default if unset.
func getEnv(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil || val <= 0 {
		return defaultVal
	}
	return val
}

func getEnvBool(key string, defaultVal bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
