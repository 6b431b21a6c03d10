package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/mbolis/survey-stats/config"
	"github.com/mbolis/survey-stats/fault"
)

// sqlite connections: foreign keys on every connection, write transactions
// take the RESERVED lock on BEGIN, and waiting writers retry instead of
// failing with SQLITE_BUSY.
const sqliteParams = "_foreign_keys=1&_txlock=immediate&_busy_timeout=5000"

func Open(cfg config.Config) (db *sqlx.DB, err error) {
	dsn := cfg.DBUrl
	if cfg.DBDriver == config.DriverSQLite {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + sqliteParams
	}

	db, err = sqlx.Open(cfg.DBDriver, dsn)
	if err != nil {
		return
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db, cfg.DBDriver)
	if err != nil {
		db.Close()
		return
	}

	return
}

// Store holds every query of the service.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// notFound translates sql.ErrNoRows into fault.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fault.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}
