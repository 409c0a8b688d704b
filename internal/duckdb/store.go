// Package duckdb stores enriched log records in a DuckDB database and
// serves the read queries behind the HTTP API.
package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tinytelemetry/sage/internal/model"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS logs_id_seq;
CREATE TABLE IF NOT EXISTS logs (
	id BIGINT DEFAULT nextval('logs_id_seq'),
	timestamp TIMESTAMP NOT NULL,
	orig_timestamp TIMESTAMP,
	level VARCHAR NOT NULL,
	level_num INTEGER NOT NULL,
	message VARCHAR NOT NULL,
	raw_line VARCHAR,
	service VARCHAR,
	hostname VARCHAR,
	attributes VARCHAR,
	source VARCHAR,
	app VARCHAR NOT NULL DEFAULT 'default',
	event_id VARCHAR
);
CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs (timestamp);
CREATE INDEX IF NOT EXISTS idx_logs_app ON logs (app);
`

// Store manages the DuckDB database connection and provides query methods.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration
}

// NewStore opens or creates a DuckDB database.
// If dbPath is empty, an in-memory database is used.
// An optional queryTimeout can be passed; it defaults to 30s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: schema bootstrap: %w", err)
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	return &Store{
		db:           db,
		dbPath:       dbPath,
		QueryTimeout: qt,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// appFilter returns a WHERE clause and args when opts.App is non-empty.
func appFilter(opts model.QueryOpts) (clause string, args []interface{}) {
	if opts.App != "" {
		return "WHERE app = ?", []interface{}{opts.App}
	}
	return "", nil
}

// TotalLogCount returns the total number of stored records.
func (s *Store) TotalLogCount(opts model.QueryOpts) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := appFilter(opts)
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logs "+where, args...).Scan(&count)
	return count, err
}

// SeverityCounts returns record counts grouped by severity level.
func (s *Store) SeverityCounts(opts model.QueryOpts) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	where, args := appFilter(opts)
	rows, err := s.db.QueryContext(ctx, "SELECT level, COUNT(*) FROM logs "+where+" GROUP BY level", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

// RecentLogs returns the most recent records in chronological order.
func (s *Store) RecentLogs(limit int, opts model.QueryOpts) ([]model.LogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	var conditions []string
	var args []interface{}
	if opts.App != "" {
		conditions = append(conditions, "app = ?")
		args = append(args, opts.App)
	}

	inner := "SELECT timestamp, orig_timestamp, level, level_num, message, raw_line, service, hostname, CAST(attributes AS VARCHAR), source, app, event_id FROM logs"
	if len(conditions) > 0 {
		inner += " WHERE " + strings.Join(conditions, " AND ")
	}
	inner += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	// Wrap so final results come back in chronological (ASC) order.
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM ("+inner+") ORDER BY timestamp ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.LogRecord
	for rows.Next() {
		var r model.LogRecord
		var origTS sql.NullTime
		var attrsJSON string
		if err := rows.Scan(&r.Timestamp, &origTS, &r.Level, &r.LevelNum, &r.Message, &r.RawLine, &r.Service, &r.Hostname, &attrsJSON, &r.Source, &r.App, &r.EventID); err != nil {
			log.Printf("duckdb: scan error (RecentLogs): %v", err)
			continue
		}
		if origTS.Valid {
			r.OrigTimestamp = origTS.Time
		}
		r.Attributes = make(map[string]string)
		if attrsJSON != "" && attrsJSON != "{}" {
			parseJSONMap(attrsJSON, r.Attributes)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// parseJSONMap parses a JSON object string into a map[string]string.
func parseJSONMap(jsonStr string, dest map[string]string) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return
	}
	for k, v := range raw {
		dest[k] = fmt.Sprintf("%v", v)
	}
}
