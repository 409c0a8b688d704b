package model

import "time"

// LogRecord represents a single log entry used across the system.
// It is the canonical type for ingestion, enrichment, storage, and the API.
type LogRecord struct {
	Timestamp     time.Time
	OrigTimestamp time.Time // Zero value = no orig timestamp
	Level         string    // TRACE/DEBUG/INFO/WARN/ERROR/FATAL
	LevelNum      int       // OTel severity number: 1-24
	Message       string
	RawLine       string
	Service       string
	Hostname      string
	Attributes    map[string]string
	Source        string // "tcp", "stdin", "http"
	App           string // application name, defaults to "default"
	EventID       string
}

// IngestEnvelope carries one raw log line with source metadata.
// It is the transport contract between ingestion plugins and the pipeline.
type IngestEnvelope struct {
	Source string
	Line   string
}
