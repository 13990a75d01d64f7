// Package persistence opens the activity repository selected by configuration.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/persistence/memory"
	"example.com/activitytracker/internal/persistence/postgres"
	"example.com/activitytracker/internal/persistence/sqlite"
	"example.com/activitytracker/internal/platform/database"
)

// Store bundles a repository with the resources it holds.
type Store struct {
	Repository domain.ActivityRepository
	// Pool is set only for the postgres driver; the outbox needs it.
	Pool   *pgxpool.Pool
	driver string
	db     *sql.DB
}

// Driver names the backing storage.
func (s *Store) Driver() string { return s.driver }

// Close releases the underlying connections.
func (s *Store) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Open builds the repository for cfg.StorageDriver.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.PostgresURL, database.DefaultRetryPolicy, logger)
		if err != nil {
			return nil, err
		}
		return &Store{Repository: postgres.NewRepository(pool), Pool: pool, driver: cfg.StorageDriver}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return &Store{Repository: sqlite.NewRepository(db), driver: cfg.StorageDriver, db: db}, nil
	case config.DriverMemory:
		return &Store{Repository: memory.NewRepository(), driver: cfg.StorageDriver}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}
