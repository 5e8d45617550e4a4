// Package storage persists scan history and clone findings in a
// project-local SQLite database. It is observability only: the in-memory
// index is authoritative, and losing this database never affects detection.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"dupfind/internal/errors"
	"dupfind/internal/logging"
)

// DBFile is the database filename inside the .dupfind directory.
const DBFile = "dupfind.db"

// DB wraps the SQLite connection with transaction helpers.
type DB struct {
	conn   *sql.DB
	log    *logging.Logger
	dbPath string
}

// Open opens or creates the findings database at <root>/.dupfind/dupfind.db.
func Open(root string, log *logging.Logger) (*DB, error) {
	if log == nil {
		log = logging.Discard()
	}

	dir := filepath.Join(root, ".dupfind")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "failed to create "+dir, err)
	}
	dbPath := filepath.Join(dir, DBFile)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "failed to open database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrap(errors.StorageFailed, "failed to set pragma", err)
		}
	}

	db := &DB{conn: conn, log: log.With("storage"), dbPath: dbPath}

	if !dbExists {
		db.log.Info("creating findings database", logging.Fields{"path": dbPath})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, err
		}
	} else if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, rolling back on error or panic.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return errors.Wrap(errors.StorageFailed, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Error("failed to rollback transaction", logging.Fields{
				"error": err.Error(), "rollbackError": rbErr.Error(),
			})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.StorageFailed, "failed to commit transaction", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
