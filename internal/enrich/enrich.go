// Package enrich defines the static enrichment contract: enrichers contribute
// unchanging key/value tags to each log record as it moves through the
// pipeline. An enricher is registered once at startup and reused for every
// record, so implementations must be safe for concurrent read-only use.
package enrich

// Well-known tag keys produced by the built-in enrichers.
const (
	KeyApp         = "app"
	KeyEnvironment = "deployment.environment"
	KeyVersion     = "service.version"
	KeyHostName    = "host.name"
	KeyProcessPID  = "process.pid"
)

// Enricher contributes tags to a log record at the moment the record is
// built. Implementations write zero or more pairs into the collector and
// must not fail when a configured value is absent: absent values are
// simply omitted.
type Enricher interface {
	Enrich(c *Collector)
}
