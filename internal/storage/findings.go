package storage

import (
	"database/sql"
	"time"

	"dupfind/internal/engine"
	"dupfind/internal/errors"
)

// ScanRecord is one recorded scan run.
type ScanRecord struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Files         int       `json:"files"`
	BlocksAdded   int       `json:"blocksAdded"`
	BlocksSkipped int       `json:"blocksSkipped"`
	Duplicates    int       `json:"duplicates"`
	Failed        int       `json:"failed"`
	Clusters      int       `json:"clusters"`
}

// CloneBlockRow is one cluster member as stored for a scan.
type CloneBlockRow struct {
	ClusterIdx int    `json:"clusterIdx"`
	BlockID    string `json:"blockId"`
	FilePath   string `json:"filePath"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	Kind       string `json:"kind"`
}

// RecordScan stores a scan run and its clone clusters in one transaction.
func (db *DB) RecordScan(scan ScanRecord, clusters []engine.Cluster) error {
	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO scans (id, started_at, finished_at, files, blocks_added,
				blocks_skipped, duplicates, failed, clusters)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scan.ID,
			scan.StartedAt.UTC().Format(time.RFC3339Nano),
			scan.FinishedAt.UTC().Format(time.RFC3339Nano),
			scan.Files, scan.BlocksAdded, scan.BlocksSkipped,
			scan.Duplicates, scan.Failed, len(clusters),
		)
		if err != nil {
			return errors.Wrap(errors.StorageFailed, "failed to insert scan", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO clone_blocks (scan_id, cluster_idx, block_id, file_path,
				start_line, end_line, kind)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(errors.StorageFailed, "failed to prepare insert", err)
		}
		defer stmt.Close()

		for idx, cluster := range clusters {
			for _, blk := range cluster.Blocks {
				if _, err := stmt.Exec(scan.ID, idx, blk.ID, blk.FilePath,
					blk.StartLine, blk.EndLine, blk.Kind); err != nil {
					return errors.Wrap(errors.StorageFailed, "failed to insert clone block", err)
				}
			}
		}
		return nil
	})
}

// ListScans returns the most recent scans, newest first.
func (db *DB) ListScans(limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, files, blocks_added,
			blocks_skipped, duplicates, failed, clusters
		FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "failed to list scans", err)
	}
	defer rows.Close()

	var scans []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.Files,
			&rec.BlocksAdded, &rec.BlocksSkipped, &rec.Duplicates,
			&rec.Failed, &rec.Clusters); err != nil {
			return nil, errors.Wrap(errors.StorageFailed, "failed to scan row", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, errors.Wrap(errors.StorageFailed, "bad started_at timestamp", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, errors.Wrap(errors.StorageFailed, "bad finished_at timestamp", err)
		}
		scans = append(scans, rec)
	}
	return scans, rows.Err()
}

// Scan returns one scan by id.
func (db *DB) Scan(id string) (*ScanRecord, error) {
	var rec ScanRecord
	var started, finished string
	err := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, files, blocks_added,
			blocks_skipped, duplicates, failed, clusters
		FROM scans WHERE id = ?`, id).Scan(
		&rec.ID, &started, &finished, &rec.Files, &rec.BlocksAdded,
		&rec.BlocksSkipped, &rec.Duplicates, &rec.Failed, &rec.Clusters)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.NotFound, "scan %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "failed to load scan", err)
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "bad started_at timestamp", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "bad finished_at timestamp", err)
	}
	return &rec, nil
}

// ScanClones returns the clone blocks recorded for a scan, grouped by
// cluster index.
func (db *DB) ScanClones(scanID string) ([]CloneBlockRow, error) {
	rows, err := db.conn.Query(`
		SELECT cluster_idx, block_id, file_path, start_line, end_line, kind
		FROM clone_blocks WHERE scan_id = ?
		ORDER BY cluster_idx, file_path, start_line`, scanID)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailed, "failed to query clone blocks", err)
	}
	defer rows.Close()

	var out []CloneBlockRow
	for rows.Next() {
		var row CloneBlockRow
		if err := rows.Scan(&row.ClusterIdx, &row.BlockID, &row.FilePath,
			&row.StartLine, &row.EndLine, &row.Kind); err != nil {
			return nil, errors.Wrap(errors.StorageFailed, "failed to scan row", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
