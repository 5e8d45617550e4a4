package storage

import (
	"database/sql"

	"dupfind/internal/errors"
	"dupfind/internal/logging"
)

const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS scans (
				id             TEXT PRIMARY KEY,
				started_at     TEXT NOT NULL,
				finished_at    TEXT NOT NULL,
				files          INTEGER NOT NULL,
				blocks_added   INTEGER NOT NULL,
				blocks_skipped INTEGER NOT NULL,
				duplicates     INTEGER NOT NULL,
				failed         INTEGER NOT NULL,
				clusters       INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS clone_blocks (
				scan_id     TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
				cluster_idx INTEGER NOT NULL,
				block_id    TEXT NOT NULL,
				file_path   TEXT NOT NULL,
				start_line  INTEGER NOT NULL,
				end_line    INTEGER NOT NULL,
				kind        TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_clone_blocks_scan ON clone_blocks(scan_id)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return errors.Wrap(errors.StorageFailed, "failed to create schema", err)
			}
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return errors.Wrap(errors.StorageFailed, "failed to set schema version", err)
		}
		db.log.Info("schema initialized", logging.Fields{"version": currentSchemaVersion})
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return errors.Newf(errors.StorageFailed,
			"database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	// Sequential migrations go here as the schema evolves.
	return nil
}

func (db *DB) schemaVersion() (int, error) {
	var name string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.StorageFailed, "failed to read schema version", err)
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.StorageFailed, "failed to read schema version", err)
	}
	return version, nil
}
