package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewPostgres opens the database at url, or at host with local defaults when url is empty,
// and applies pending migrations.
func NewPostgres(url, host string) (*sql.DB, error) {
	dsn := url
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://postgres:postgres@%s/postgres?sslmode=disable", host)
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies all pending embedded migrations.
func Migrate(db *sql.DB) error {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}

	n, err := migrate.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	slog.Info("Migrations applied", "count", n)

	return nil
}
