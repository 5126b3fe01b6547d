package sqltable

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitedb "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema for the store's dialect.
func (s *Store) Migrate(logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var driver database.Driver
	switch s.dialect {
	case Postgres:
		driver, err = postgresdb.WithInstance(s.db.DB, &postgresdb.Config{})
	case SQLite:
		driver, err = sqlitedb.WithInstance(s.db.DB, &sqlitedb.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// m.Close would close the shared pool, so the instance is left to the GC.
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply", zap.String("dialect", string(s.dialect)))
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully", zap.String("dialect", string(s.dialect)))
	}
	return nil
}
