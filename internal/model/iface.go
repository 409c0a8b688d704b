package model

// QueryOpts holds optional filters applied to read queries.
type QueryOpts struct {
	App string // empty = all apps
}

// LogWriter provides append-oriented write operations for enriched logs.
type LogWriter interface {
	InsertLogBatch(records []*LogRecord) error
}

// LogReader provides the read-side contract consumed by the HTTP API.
type LogReader interface {
	TotalLogCount(opts QueryOpts) (int64, error)
	SeverityCounts(opts QueryOpts) (map[string]int64, error)
	RecentLogs(limit int, opts QueryOpts) ([]LogRecord, error)
}
