package pipeline

import (
	"testing"

	"github.com/tinytelemetry/sage/internal/container"
	"github.com/tinytelemetry/sage/internal/enrich"
	"github.com/tinytelemetry/sage/internal/model"
)

type captureSink struct {
	records []*model.LogRecord
}

func (s *captureSink) Add(record *model.LogRecord) {
	s.records = append(s.records, record)
}

func newTestContainer(t *testing.T) *container.Container {
	t.Helper()

	c := container.New()
	if _, err := container.AddStaticEnricherWithOptions(c, func(o *enrich.StaticOptions) {
		o.ApplicationName = "checkout"
		o.Environment = "production"
	}); err != nil {
		t.Fatalf("register static enricher: %v", err)
	}
	return c
}

func TestProcessEnvelope_EnrichesParsedRecord(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{
		Source: "tcp",
		Line:   `{"msg":"order placed","level":"info"}`,
	})
	if result == nil || result.Record == nil {
		t.Fatal("expected a result record")
	}

	r := result.Record
	if r.Attributes[enrich.KeyApp] != "checkout" {
		t.Errorf("app attribute = %q, want checkout", r.Attributes[enrich.KeyApp])
	}
	if r.Attributes[enrich.KeyEnvironment] != "production" {
		t.Errorf("environment attribute = %q, want production", r.Attributes[enrich.KeyEnvironment])
	}
	if r.App != "checkout" {
		t.Errorf("App = %q, want checkout (derived from enrichment)", r.App)
	}
	if r.Source != "tcp" {
		t.Errorf("Source = %q, want tcp", r.Source)
	}
	if len(sink.records) != 1 {
		t.Fatalf("sink records = %d, want 1", len(sink.records))
	}
}

func TestProcessEnvelope_RecordAttributesWin(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{
		Line: `{"msg":"from the source","level":"info","app":"billing"}`,
	})
	if result == nil {
		t.Fatal("expected a result")
	}

	r := result.Record
	if r.Attributes[enrich.KeyApp] != "billing" {
		t.Errorf("app attribute = %q, want source value billing", r.Attributes[enrich.KeyApp])
	}
	// The enricher still fills keys the source did not set.
	if r.Attributes[enrich.KeyEnvironment] != "production" {
		t.Errorf("environment attribute = %q, want production", r.Attributes[enrich.KeyEnvironment])
	}
}

func TestProcessEnvelope_FallbackForPlainText(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{Line: "WARN disk filling up"})
	if result == nil {
		t.Fatal("expected a result")
	}

	r := result.Record
	if r.Level != "WARN" {
		t.Errorf("Level = %q, want WARN", r.Level)
	}
	if r.Attributes[enrich.KeyApp] != "checkout" {
		t.Errorf("fallback record not enriched: %v", r.Attributes)
	}
	if r.App != "checkout" {
		t.Errorf("App = %q, want checkout", r.App)
	}
}

func TestProcessEnvelope_EmptyLine(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	if result := p.ProcessEnvelope(model.IngestEnvelope{Line: ""}); result != nil {
		t.Fatalf("result = %v, want nil for empty line", result)
	}
	if len(sink.records) != 0 {
		t.Fatalf("sink records = %d, want 0", len(sink.records))
	}
}

func TestProcessEnvelope_DefaultSourceName(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{Line: "hello"})
	if result.Record.Source != "stdin" {
		t.Errorf("Source = %q, want pipeline default stdin", result.Record.Source)
	}
}

func TestProcessEnvelope_EnrichersRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	// Two static enrichers share the deployment.environment key. The
	// collector keeps the first write, so the earlier registration wins.
	c := container.New()
	if _, err := container.AddStaticEnricherWithOptions(c, func(o *enrich.StaticOptions) {
		o.Environment = "staging"
	}); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if _, err := container.AddStaticEnricherWithOptions(c, func(o *enrich.StaticOptions) {
		o.Environment = "production"
	}); err != nil {
		t.Fatalf("register second: %v", err)
	}

	sink := &captureSink{}
	p := New(c, sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{Line: "hello"})
	if got := result.Record.Attributes[enrich.KeyEnvironment]; got != "staging" {
		t.Errorf("environment = %q, want staging (first registration wins)", got)
	}
}

func TestProcessEnvelope_MultiRecordEnvelope(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(newTestContainer(t), sink, "stdin")

	line := `{"resourceLogs":[{"scopeLogs":[{"logRecords":[{"body":{"stringValue":"first"},"severityText":"INFO"},{"body":{"stringValue":"second"},"severityText":"ERROR"}]}]}]}`

	result := p.ProcessEnvelope(model.IngestEnvelope{Source: "tcp", Line: line})
	if result == nil {
		t.Fatal("expected a result")
	}
	if len(sink.records) != 2 {
		t.Fatalf("sink records = %d, want 2", len(sink.records))
	}
	if result.Record.Message != "first" {
		t.Errorf("result message = %q, want first", result.Record.Message)
	}
	for _, r := range sink.records {
		if r.Attributes[enrich.KeyApp] != "checkout" {
			t.Errorf("record %q not enriched", r.Message)
		}
	}
}

func TestNew_NilContainer(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	p := New(nil, sink, "stdin")

	result := p.ProcessEnvelope(model.IngestEnvelope{Line: "hello"})
	if result == nil {
		t.Fatal("expected a result even without enrichers")
	}
	if len(result.Record.Attributes) != 0 {
		t.Errorf("attributes = %v, want none", result.Record.Attributes)
	}
}
