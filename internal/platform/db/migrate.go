package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate runs all embedded SQL migrations against the provided pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return withGoose(pool, func(sqlDB *sql.DB) error {
		return goose.UpContext(ctx, sqlDB, migrationsDir)
	})
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) error {
	return withGoose(pool, func(sqlDB *sql.DB) error {
		return goose.StatusContext(ctx, sqlDB, migrationsDir)
	})
}

func withGoose(pool *pgxpool.Pool, fn func(*sql.DB) error) error {
	if pool == nil {
		return errors.New("platform/db: nil pool provided")
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("platform/db: goose dialect: %w", err)
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", pool.Config().ConnConfig.ConnString())
	if err != nil {
		return fmt.Errorf("platform/db: open migration db: %w", err)
	}
	defer sqlDB.Close()

	return fn(sqlDB)
}
