package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	StoreDriver string // "postgres" or "memory"
	TablePrefix string
	CORSOrigins string
	JWKSURL     string // Empty disables JWT verification (dev only)
	// Cache configuration
	CacheSlowTier           string // "sqlite", "memory" or "none"
	CacheSQLitePath         string
	CacheSlowTierMaxEntries int
	CachePolicyFile         string // Optional YAML override of the embedded TTL policy
	// Permission configuration
	OwnableTitlePrefixes    []string
	PersonalNamespacePrefix string
	OwnershipFile           string // Optional YAML list of resource owners; unset approves every claim
	// Background work
	ViewFlushInterval time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWKSURL:     getEnv("JWKS_URL", ""),
		// Cache configuration
		CacheSlowTier:           getEnv("CACHE_SLOW_TIER", "sqlite"),
		CacheSQLitePath:         getEnv("CACHE_SQLITE_PATH", "wiki-cache.db"),
		CacheSlowTierMaxEntries: getEnvInt("CACHE_SLOW_TIER_MAX_ENTRIES", DefaultSlowTierMaxEntries),
		CachePolicyFile:         getEnv("CACHE_POLICY_FILE", ""),
		// Permission configuration
		OwnableTitlePrefixes:    splitList(getEnv("OWNABLE_TITLE_PREFIXES", "Server:")),
		PersonalNamespacePrefix: getEnv("PERSONAL_NAMESPACE_PREFIX", "User:"),
		OwnershipFile:           getEnv("OWNERSHIP_FILE", ""),
		ViewFlushInterval:       getEnvDuration("VIEW_FLUSH_INTERVAL", 5*time.Second),
		LogDir:                  getEnv("LOG_DIR", ""),
		LogMaxFiles:             getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated value, dropping empty items
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
