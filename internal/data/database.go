package data

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"go-news-portal/internal/config"
	"go-news-portal/internal/logger"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationsFS exposes the embedded SQL migrations, one directory per dialect.
var MigrationsFS = migrationsFS

// NewDB creates a new database connection pool.
// The pool dials lazily, so an unreachable server is not an error here: requests
// acquire connections on demand and the read paths degrade to fallback data.
func NewDB(cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.DriverName(), cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Ping checks that the store is reachable. It never fails hard: the error is logged
// and false is returned so callers can carry on in degraded mode.
func Ping(ctx context.Context, db *sqlx.DB, log logger.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Error(err, "Database is unreachable; public pages will use fallback content")
		return false
	}
	return true
}

// ApplyMigrations runs all up migrations for the pool's dialect.
// The migrate instance is not closed: its database drivers close the
// *sql.DB they were handed, and the pool is still needed by the application.
func ApplyMigrations(db *sqlx.DB) error {
	dialect := DialectOf(db)

	src, err := iofs.New(migrationsFS, "migrations/"+dialect.Name())
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case Postgres:
		driver, err = migratepgx.WithInstance(db.DB, &migratepgx.Config{})
	case SQLite:
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	default:
		driver, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", classifyError(err))
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect.Name(), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Up applies all available up migrations.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
