package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the report-cache connection pool from DATABASE_URL.
// Absent DATABASE_URL is not an error: callers fall back to the file cache.
func InitDB(ctx context.Context) (*pgxpool.Pool, error) {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			return
		}
		cfg, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
	})
	return pool, err
}

// Close closes the report-cache connection pool, if one was opened.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
