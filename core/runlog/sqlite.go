package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS allocation_runs (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        record TEXT
    );
    CREATE TABLE IF NOT EXISTS allocation_run_pharmacies (
        run_id TEXT,
        pharmacy_id TEXT,
        PRIMARY KEY (run_id, pharmacy_id)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record and its pharmacy index in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO allocation_runs (id, ts, record) VALUES (?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), string(b)); err != nil {
		return err
	}
	for _, l := range rec.Loads {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO allocation_run_pharmacies (run_id, pharmacy_id) VALUES (?, ?)`,
			rec.ID, l.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]RunRecord, error) {
	var args []any
	query := `SELECT record FROM allocation_runs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.PharmacyID != "" {
		query += ` AND id IN (SELECT run_id FROM allocation_run_pharmacies WHERE pharmacy_id = ?)`
		args = append(args, q.PharmacyID)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r RunRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns the run with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (RunRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM allocation_runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	var r RunRecord
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return r, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
