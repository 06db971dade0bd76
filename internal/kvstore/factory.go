package kvstore

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by New.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a store backend.
type Options struct {
	Backend     string
	SQLitePath  string        // required for the sqlite backend
	RedisClient *redis.Client // required for the redis backend
}

// New builds the configured Store backend.
func New(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendRedis:
		if opts.RedisClient == nil {
			return nil, fmt.Errorf("redis backend requires a connected client")
		}
		return NewRedisStore(opts.RedisClient), nil
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return NewSQLiteStore(opts.SQLitePath)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
