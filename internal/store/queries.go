package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	awhere "github.com/MwendaMugendi/awhere-go"
)

// Point is one archived reading of a metric.
type Point struct {
	Date  string
	Value float64
}

// SyncRun records the outcome of one archive refresh for a field.
type SyncRun struct {
	FieldID     string
	SyncedAt    time.Time
	RowsWritten int
	Error       string
}

// UpsertObservations writes every numeric cell of a normalized table into the
// archive, one row per (date, metric). Re-syncing a range overwrites earlier
// values. Rows without a date and non-numeric cells are skipped.
func (s *Store) UpsertObservations(fieldID, dateColumn string, table *awhere.Table) (int, error) {
	query := `
		INSERT INTO observations (field_id, date, metric, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(field_id, date, metric) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	tx, err := s.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(context.Background(), query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	written := 0
	for _, row := range table.Rows {
		date, ok := row[dateColumn].(string)
		if !ok || date == "" {
			continue
		}
		for _, col := range table.Columns {
			if col == dateColumn {
				continue
			}
			value, ok := row[col].(float64)
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(context.Background(), fieldID, date, col, value); err != nil {
				return 0, fmt.Errorf("failed to upsert observation: %w", err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}

	return written, nil
}

// Series returns one metric for a field in date order. since is an inclusive
// YYYY-MM-DD lower bound; empty means the whole archive.
func (s *Store) Series(fieldID, metric, since string) ([]Point, error) {
	query := `
		SELECT date, value
		FROM observations
		WHERE field_id = ? AND metric = ? AND date >= ?
		ORDER BY date ASC
	`

	rows, err := s.QueryContext(context.Background(), query, fieldID, metric, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// LatestDate returns the newest archived date for a field, or "" when the
// archive has none. Incremental syncs resume from the day after.
func (s *Store) LatestDate(fieldID string) (string, error) {
	var date sql.NullString
	err := s.QueryRowContext(context.Background(),
		"SELECT MAX(date) FROM observations WHERE field_id = ?", fieldID).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("failed to query latest date: %w", err)
	}
	return date.String, nil
}

// Metrics lists the distinct metric names archived for a field.
func (s *Store) Metrics(fieldID string) ([]string, error) {
	rows, err := s.QueryContext(context.Background(),
		"SELECT DISTINCT metric FROM observations WHERE field_id = ? ORDER BY metric", fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var metrics []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// Fields lists the distinct field IDs present in the archive.
func (s *Store) Fields() ([]string, error) {
	rows, err := s.QueryContext(context.Background(),
		"SELECT DISTINCT field_id FROM observations ORDER BY field_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, f)
	}

	return fields, rows.Err()
}

// RecordSync logs the outcome of one archive refresh.
func (s *Store) RecordSync(fieldID string, rowsWritten int, syncErr error) error {
	var errStr string
	if syncErr != nil {
		errStr = syncErr.Error()
	}

	_, err := s.ExecContext(context.Background(),
		"INSERT INTO sync_runs (field_id, rows_written, error) VALUES (?, ?, ?)",
		fieldID, rowsWritten, nullString(errStr))
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// LastSync returns the most recent sync run for a field, or nil when the
// field has never been synced.
func (s *Store) LastSync(fieldID string) (*SyncRun, error) {
	query := `
		SELECT field_id, synced_at, rows_written, error
		FROM sync_runs
		WHERE field_id = ?
		ORDER BY synced_at DESC, id DESC
		LIMIT 1
	`

	var run SyncRun
	var errStr sql.NullString
	err := s.QueryRowContext(context.Background(), query, fieldID).Scan(
		&run.FieldID,
		&run.SyncedAt,
		&run.RowsWritten,
		&errStr,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync: %w", err)
	}

	run.Error = errStr.String
	return &run, nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
