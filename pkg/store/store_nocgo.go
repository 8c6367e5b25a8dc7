//go:build !wasm && !cgo

package store

import "fmt"

// New creates a store for native builds without CGO: a Postgres-backed
// store when cfg.DSN is set (pgx is pure Go, so this works without CGO),
// otherwise MemoryStore (SQLite requires CGO).
func New(cfg Config) (Store, error) {
	if cfg.DSN != "" {
		return NewPostgres(cfg.DSN)
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Only MemoryStore is available without CGO
	if cfg.Path != ":memory:" {
		return nil, fmt.Errorf("SQLite requires CGO (build with CGO_ENABLED=1). For non-CGO builds, use :memory: path")
	}

	return NewMemory(), nil
}
