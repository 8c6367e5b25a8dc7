//go:build !wasm && cgo

package store

import "fmt"

// New creates a SQLite-based store for native builds, or a Postgres-backed
// one when cfg.DSN is set.
func New(cfg Config) (Store, error) {
	if cfg.DSN != "" {
		return NewPostgres(cfg.DSN)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return NewSQLite(cfg.Path)
}
