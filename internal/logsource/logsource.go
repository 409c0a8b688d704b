// Package logsource abstracts where raw log lines come from. Every source,
// whatever its transport, surfaces the same three things: a stream of
// ingest envelopes, a way to shut it down, and a name that ends up in each
// record's Source field.
package logsource

import "github.com/tinytelemetry/sage/internal/model"

// LogSource is one origin of raw log lines. Lines is closed when the
// source drains or is stopped; Stop is safe to call more than once.
type LogSource interface {
	Lines() <-chan model.IngestEnvelope
	Stop()
	Name() string
}
