package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownBackend is returned by New for unsupported backend names.
var ErrUnknownBackend = errors.New("store: unknown backend")

// Config selects and configures a backend.
type Config struct {
	Backend string
	DataDir string
	Redis   RedisOptions
}

// New creates a Surface based on the backend name.
//
// Supported backends:
//
//	"json"   - one JSON file per key in DataDir (default)
//	"sqlite" - SQLite database at DataDir/words.db
//	"redis"  - Redis at Redis.Addr
//	"memory" - In-memory (ephemeral, for testing)
func New(ctx context.Context, cfg Config) (Surface, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJsonFileStore(cfg.DataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(cfg.DataDir, "words.db"))
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: json, sqlite, redis, memory)", ErrUnknownBackend, cfg.Backend)
	}
}
