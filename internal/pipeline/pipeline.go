// Package pipeline connects ingestion to storage: each raw line becomes a
// record, every registered enricher contributes its static tags, and the
// enriched record is handed to the sink.
package pipeline

import (
	"github.com/tinytelemetry/sage/internal/container"
	"github.com/tinytelemetry/sage/internal/enrich"
	"github.com/tinytelemetry/sage/internal/ingest"
	"github.com/tinytelemetry/sage/internal/model"
)

// Sink receives enriched records. The DuckDB insert buffer satisfies this.
type Sink interface {
	Add(record *model.LogRecord)
}

// Result holds the outcome of processing one line.
type Result struct {
	Record *model.LogRecord
}

// Pipeline enriches and routes records. Enrichers are snapshotted from the
// container at construction and invoked in registration order; each record
// gets its own collector, so ProcessEnvelope is safe for concurrent use.
type Pipeline struct {
	enrichers  []enrich.Enricher
	sink       Sink
	sourceName string
}

// New builds a pipeline over the container's registered enrichers.
func New(c *container.Container, sink Sink, sourceName string) *Pipeline {
	var enrichers []enrich.Enricher
	if c != nil {
		enrichers = c.Enrichers()
	}
	return &Pipeline{
		enrichers:  enrichers,
		sink:       sink,
		sourceName: sourceName,
	}
}

// ProcessEnvelope processes one source-tagged line: parse, enrich, sink.
// Empty lines produce nil. When an envelope yields multiple records (OTLP
// envelopes can), all are enriched and sunk and the first is returned.
func (p *Pipeline) ProcessEnvelope(env model.IngestEnvelope) *Result {
	if env.Line == "" {
		return nil
	}

	source := env.Source
	if source == "" {
		source = p.sourceName
	}

	records := ingest.Parse(env.Line)
	if len(records) == 0 {
		records = []*model.LogRecord{ingest.Fallback(env.Line)}
	}

	for _, record := range records {
		record.Source = source
		p.enrichRecord(record)
		if p.sink != nil {
			p.sink.Add(record)
		}
	}
	return &Result{Record: records[0]}
}

// enrichRecord runs every enricher over a fresh collector and merges the
// collected tags into the record. Attributes already present on the record
// win: enrichers fill absent keys only, so source data is never clobbered
// by static configuration.
func (p *Pipeline) enrichRecord(record *model.LogRecord) {
	if record.Attributes == nil {
		record.Attributes = map[string]string{}
	}

	if len(p.enrichers) > 0 {
		c := enrich.NewCollector()
		for _, e := range p.enrichers {
			e.Enrich(c)
		}
		for _, tag := range c.Tags() {
			if _, exists := record.Attributes[tag.Key]; !exists {
				record.Attributes[tag.Key] = tag.Value
			}
		}
	}

	// Derived fields follow the merged attributes.
	if record.App == "" || record.App == "default" {
		if app := record.Attributes[enrich.KeyApp]; app != "" {
			record.App = app
		}
	}
	if record.App == "" {
		record.App = "default"
	}
	if record.Service == "" {
		record.Service = ingest.ExtractService(record.Attributes)
	}
	if record.Hostname == "" {
		record.Hostname = record.Attributes[enrich.KeyHostName]
	}
}
