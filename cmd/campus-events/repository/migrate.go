package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type MigrateDirection string

const (
	MigrateUp   MigrateDirection = "up"
	MigrateDown MigrateDirection = "down"
)

// Migrate applies the embedded schema migrations. It borrows one
// connection from the pool so the shared handle stays open afterwards.
func Migrate(ctx context.Context, db *gorm.DB, direction MigrateDirection) (uint, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}

	c, err := sqlDB.Conn(ctx)
	if err != nil {
		return 0, err
	}

	driver, err := migratepg.WithConnection(ctx, c, &migratepg.Config{})
	if err != nil {
		c.Close()
		return 0, err
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		driver.Close()
		return 0, err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		return 0, err
	}
	defer m.Close()

	switch direction {
	case MigrateUp:
		err = m.Up()
	case MigrateDown:
		err = m.Down()
	default:
		return 0, fmt.Errorf("unknown migrate direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return version, err
}
