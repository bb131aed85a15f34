// Package persistence opens the bun database for the configured driver and
// applies the embedded goose migrations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-edu"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to dsn with the driver matching name and wraps the
// connection with the bun dialect for it.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// a single connection keeps in memory databases shared and
		// serializes writers
		sqldb.SetMaxOpenConns(1)
		if _, err := sqldb.Exec("PRAGMA foreign_keys = ON"); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies every pending migration for the dialect of db.
func Migrate(ctx context.Context, db *bun.DB) error {
	dir, gooseDialect, err := migrationTarget(db)
	if err != nil {
		return err
	}

	migrations, err := fs.Sub(edu.GetMigrationsFS(), "data/sql/migrations/"+dir)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func migrationTarget(db *bun.DB) (string, goose.Dialect, error) {
	switch db.Dialect().Name().String() {
	case "sqlite":
		return DriverSQLite, goose.DialectSQLite3, nil
	case "pg":
		return DriverPostgres, goose.DialectPostgres, nil
	default:
		return "", "", fmt.Errorf("no migrations for dialect %s", db.Dialect().Name())
	}
}
