package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	run_id      TEXT NOT NULL,
	instance_id TEXT NOT NULL,
	period      TEXT,
	activity    TEXT,
	payload     TEXT NOT NULL,
	PRIMARY KEY (run_id, instance_id)
);
CREATE INDEX IF NOT EXISTS reports_activity ON reports(activity);
`

// SQLiteSink stores each row as a JSON payload in a reports table, with
// instance_id, period and director_activity_name copied into key columns.
type SQLiteSink struct {
	db    *sql.DB
	runID string
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path, runID string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db, runID: runID}, nil
}

// Write implements Sink. Rows are upserted in a single transaction.
func (s *SQLiteSink) Write(ctx context.Context, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("sqlite", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reports(run_id, instance_id, period, activity, payload)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(run_id, instance_id) DO UPDATE SET
		   period=excluded.period, activity=excluded.activity, payload=excluded.payload`)
	if err != nil {
		return writeError("sqlite", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return writeError("sqlite", err)
		}
		id, _ := row.Get("instance_id")
		period, _ := row.Get("period")
		activity, _ := row.Get("director_activity_name")
		if _, err := stmt.ExecContext(ctx, s.runID, id, nullStr(period), nullStr(activity), string(payload)); err != nil {
			return writeError("sqlite", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return writeError("sqlite", err)
	}
	return nil
}

// Rows reads back every row stored for the sink's run, ordered numerically by instance id.
func (s *SQLiteSink) Rows(ctx context.Context) ([]Row, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ? ORDER BY CAST(instance_id AS INTEGER), instance_id`, s.runID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var payload string
		if err := rs.Scan(&payload); err != nil {
			return nil, err
		}
		var row Row
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
