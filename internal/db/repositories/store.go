package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db"
	"github.com/hookline/hookline/internal/store"
)

func init() {
	store.Register(config.BackendPostgres, Open)
}

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	*UserRepository
	*ScriptRepository
	*CommunityRepository

	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an open database handle.
func NewStore(database *sqlx.DB) *Store {
	return &Store{
		UserRepository:      NewUserRepository(database),
		ScriptRepository:    NewScriptRepository(database),
		CommunityRepository: NewCommunityRepository(database),
		db:                  database,
	}
}

// Open connects to the configured database, applies pending migrations when
// database.auto_migrate is set, and returns the store.
func Open(cfg *config.Config) (store.Store, error) {
	sqlDB, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(sqlDB, "up"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		version, dirty, err := db.GetMigrationVersion(sqlDB)
		if err == nil {
			slog.Info("database migrations applied", "version", version, "dirty", dirty)
		}
	}

	return NewStore(sqlx.NewDb(sqlDB, "postgres")), nil
}

// DB exposes the underlying pool for connection stats.
func (s *Store) DB() *sql.DB { return s.db.DB }

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the connection pool
func (s *Store) Close() error { return s.db.Close() }
