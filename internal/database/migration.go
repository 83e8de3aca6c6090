package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationService applies the embedded schema migrations
type MigrationService struct {
	db *DB
}

// NewMigrationService creates a new migration service
func NewMigrationService(db *DB) *MigrationService {
	return &MigrationService{db: db}
}

// Up applies all pending migrations
func (ms *MigrationService) Up() error {
	return ms.run(func(m *migrate.Migrate) error { return m.Up() })
}

// Down rolls back a single migration
func (ms *MigrationService) Down() error {
	return ms.run(func(m *migrate.Migrate) error { return m.Steps(-1) })
}

// Force sets the version without running migrations, used to repair a dirty state
func (ms *MigrationService) Force(version int) error {
	return ms.run(func(m *migrate.Migrate) error { return m.Force(version) })
}

// Version returns the current migration version and whether it is dirty
func (ms *MigrationService) Version() (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := ms.run(func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func (ms *MigrationService) run(fn func(m *migrate.Migrate) error) error {
	m, err := ms.getMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// getMigrator creates a new migrate instance over the embedded files
func (ms *MigrationService) getMigrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	// Convert pgxpool to database/sql for migrate compatibility
	sqlDB := stdlib.OpenDBFromPool(ms.db.Pool)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
