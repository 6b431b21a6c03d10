package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/mbolis/survey-stats/config"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *sqlx.DB, driver string) error {
	src, err := iofs.New(dbMigrations, "migrations/"+driver)
	if err != nil {
		return err
	}

	var dst migratedb.Driver
	switch driver {
	case config.DriverSQLite:
		dst, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case config.DriverPostgres:
		dst, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		err = fmt.Errorf("no migrations for driver %q", driver)
	}
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		break
	case err != nil:
		return err
	}
	return nil
}
