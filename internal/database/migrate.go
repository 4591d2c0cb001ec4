package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/unveiledecho/formrelay/migrations"
)

// Migrator runs the embedded delivery log migrations over one dedicated
// connection. Close must be called to hand that connection back to the pool.
type Migrator struct {
	*migrate.Migrate
}

// NewMigrator checks a connection out of the pool and builds a migrator on
// it. The pool itself is never closed by the migrator.
func NewMigrator(ctx context.Context, db *Postgres) (*Migrator, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{Migrate: m}, nil
}

// Close releases the migration connection and the embedded source.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.Migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// MigrateUp applies every pending migration and releases the connection.
func MigrateUp(ctx context.Context, db *Postgres) error {
	m, err := NewMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
