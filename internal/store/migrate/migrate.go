// Package migrate aplica el schema embebido de migrations/postgres con golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	pgmigrations "github.com/dropDatabas3/idbroker/migrations/postgres"
)

// Direction sentido de la migración.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection valida el sentido recibido por CLI.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: direction must be up or down, got %q", repository.ErrInvalidInput, s)
}

// Run aplica las migraciones en el sentido indicado. Estar ya en la versión
// objetivo no es un error.
func Run(dsn string, dir Direction) error {
	if dsn == "" {
		return fmt.Errorf("%w: migrate: dsn is required", repository.ErrInvalidInput)
	}

	m, err := open(dsn)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("%w: unknown direction %q", repository.ErrInvalidInput, dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	return nil
}

// Version retorna la versión aplicada. dirty indica una migración a medias.
func Version(dsn string) (version uint, dirty bool, err error) {
	m, err := open(dsn)
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func open(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(pgmigrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", repository.ErrUnavailable, err)
	}
	return m, nil
}
