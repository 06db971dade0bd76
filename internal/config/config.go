package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Identity
	Username  string // owner of the persisted data, default "guest"
	Ephemeral bool   // true => demo session, nothing persisted

	// Catalog
	CatalogURL     string        // remote catalog endpoint (optional, empty = file/built-in only)
	CatalogFile    string        // local catalog file, .json or .yaml (optional)
	CatalogTimeout time.Duration // timeout for the remote fetch (default: 10s)

	// Store
	StoreBackend string // "redis" | "sqlite" | "memory"
	SQLitePath   string // path to the sqlite database file

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("TT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TT_PRETTY_LOG", true),

		// Identity
		Username:  getenv("TT_USERNAME", "guest"),
		Ephemeral: mustBool("TT_EPHEMERAL", false),

		// Catalog
		CatalogURL:     getenv("TT_CATALOG_URL", ""),
		CatalogFile:    getenv("TT_CATALOG_FILE", ""),
		CatalogTimeout: mustDuration("TT_CATALOG_TIMEOUT", 10*time.Second),

		// Store
		StoreBackend: strings.ToLower(getenv("TT_STORE_BACKEND", "sqlite")),
		SQLitePath:   getenv("TT_SQLITE_PATH", "/app/data/techtrack.db"),

		// Redis settings
		RedisAddr:             getenv("TT_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("TT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("TT_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("TT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("TT_REDIS_DB", 0),
		RedisDT:               mustDuration("TT_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("TT_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("TT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("TT_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("TT_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("TT_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("TT_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("TT_REDIS_RETRY_INTERVAL", 2*time.Second),
	}

	switch cfg.StoreBackend {
	case "redis", "sqlite", "memory":
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid TT_STORE_BACKEND %q (valid: redis, sqlite, memory)", cfg.StoreBackend))
	}

	// Validate Redis password configuration
	if cfg.StoreBackend == "redis" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: TT_REDIS_PASSWORD is required when TT_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
