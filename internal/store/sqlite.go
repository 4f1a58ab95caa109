package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/modelmux/modelmux/internal/domain"
)

// SQLiteMetricStore persists metric records in a local SQLite database.
// It uses WAL mode for concurrent reads during writes and a single writer
// connection, which SQLite requires.
type SQLiteMetricStore struct {
	db         *sql.DB
	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
	sinceStmt  *sql.Stmt
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

var _ MetricStore = (*SQLiteMetricStore)(nil)

const metricSchema = `
CREATE TABLE IF NOT EXISTS metric_records (
	id              TEXT PRIMARY KEY,
	provider_id     TEXT NOT NULL,
	org_id          TEXT NOT NULL,
	ts              INTEGER NOT NULL,
	total_requests  INTEGER NOT NULL,
	success_count   INTEGER NOT NULL,
	failure_count   INTEGER NOT NULL,
	avg_response_ms REAL NOT NULL,
	error_rate      REAL NOT NULL,
	throughput_rpm  REAL NOT NULL,
	extra           TEXT
);
CREATE INDEX IF NOT EXISTS idx_metric_records_provider_ts
	ON metric_records (provider_id, ts);
CREATE INDEX IF NOT EXISTS idx_metric_records_ts
	ON metric_records (ts);
`

// NewSQLiteMetricStore opens (creating if needed) the database at dbPath.
func NewSQLiteMetricStore(dbPath string) (*SQLiteMetricStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("store: db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(metricSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	s := &SQLiteMetricStore{db: db}
	if err := s.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteMetricStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO metric_records
			(id, provider_id, org_id, ts, total_requests, success_count,
			 failure_count, avg_response_ms, error_rate, throughput_rpm, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`DELETE FROM metric_records WHERE ts < ?`)
	if err != nil {
		return fmt.Errorf("store: prepare prune: %w", err)
	}

	s.sinceStmt, err = s.db.Prepare(`
		SELECT id, provider_id, org_id, ts, total_requests, success_count,
		       failure_count, avg_response_ms, error_rate, throughput_rpm, extra
		FROM metric_records
		WHERE provider_id = ? AND ts >= ?
		ORDER BY ts ASC`)
	if err != nil {
		return fmt.Errorf("store: prepare since query: %w", err)
	}

	return nil
}

// InsertMetric appends one metric record.
func (s *SQLiteMetricStore) InsertMetric(ctx context.Context, rec domain.MetricRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}

	var extra []byte
	if len(rec.Extra) > 0 {
		var err error
		extra, err = json.Marshal(rec.Extra)
		if err != nil {
			return fmt.Errorf("store: marshal extra: %w", err)
		}
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID, rec.ProviderID, rec.OrgID, rec.Timestamp.UnixMilli(),
		rec.TotalRequests, rec.SuccessCount, rec.FailureCount,
		rec.AvgResponseMS, rec.ErrorRate, rec.ThroughputRPM, string(extra))
	if err != nil {
		return fmt.Errorf("store: insert metric: %w", err)
	}
	return nil
}

// PruneBefore deletes all records older than the cutoff.
func (s *SQLiteMetricStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	res, err := s.pruneStmt.ExecContext(ctx, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: prune metrics: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: prune rows affected: %w", err)
	}
	return n, nil
}

// MetricsSince returns a provider's records at or after the given time.
func (s *SQLiteMetricStore) MetricsSince(ctx context.Context, providerID string, since time.Time) ([]domain.MetricRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.sinceStmt.QueryContext(ctx, providerID, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("store: query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.MetricRecord
	for rows.Next() {
		var (
			rec   domain.MetricRecord
			ts    int64
			extra sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ProviderID, &rec.OrgID, &ts,
			&rec.TotalRequests, &rec.SuccessCount, &rec.FailureCount,
			&rec.AvgResponseMS, &rec.ErrorRate, &rec.ThroughputRPM, &extra); err != nil {
			return nil, fmt.Errorf("store: scan metric: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
				return nil, fmt.Errorf("store: unmarshal extra: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate metrics: %w", err)
	}
	return records, nil
}

// Close closes the prepared statements and the database. Idempotent;
// subsequent operations return ErrClosed.
func (s *SQLiteMetricStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.pruneStmt, s.sinceStmt} {
			if stmt != nil {
				_ = stmt.Close()
			}
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
