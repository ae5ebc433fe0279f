// Package store provides durable key/value backends that hold whole snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("key not found")

// KV stores opaque values under a key. Put replaces the previous value wholesale.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	Backend     string
	Path        string
	DatabaseURL string
	S3          S3Config
}

// Open creates the backend selected by cfg.Backend and prepares its schema.
func Open(ctx context.Context, cfg Config) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case "", BackendFile:
		kv, err = NewFileKV(nil, cfg.Path)
	case BackendSQLite:
		kv, err = NewSQLiteKV(ctx, cfg.Path)
	case BackendPostgres:
		kv, err = openPostgres(ctx, cfg.DatabaseURL)
	case BackendS3:
		kv, err = NewS3KV(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	return kv, nil
}

func openPostgres(ctx context.Context, url string) (*Store, error) {
	pg, err := NewStore(url)
	if err != nil {
		return nil, err
	}
	if err := pg.RunMigrations(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}
