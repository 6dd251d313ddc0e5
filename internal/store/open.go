package store

import (
	"context"
	"fmt"
)

// Backend names accepted by OpenBackend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a KV backend.
type Options struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// OpenBackend opens the KV named by opts.Backend.
func OpenBackend(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		path := opts.Path
		if path == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolve db path: %w", err)
			}
			path = p
		} else if err := ensureDir(path); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		return Open(path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", opts.Backend)
	}
}
