package timestamp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseFromText_LeadingTimestampFormats(t *testing.T) {
	t.Parallel()

	p := NewParser()
	tests := []struct {
		name          string
		line          string
		wantRemaining string
	}{
		{"rfc3339", "2024-01-15T10:30:45Z order placed", "order placed"},
		{"rfc3339 nanos", "2024-01-15T10:30:45.123456789Z order placed", "order placed"},
		{"rfc3339 offset", "2024-01-15T10:30:45+05:00 order placed", "order placed"},
		{"space separated", "2024-01-15 10:30:45 order placed", "order placed"},
		{"millis fraction", "2024-01-15 10:30:45.123 order placed", "order placed"},
		{"comma fraction", "2024-01-15 10:30:45,123 order placed", "order placed"},
		{"syslog", "Jan 15 10:30:45 order placed", "order placed"},
		{"clock only", "10:30:45.123 order placed", "order placed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := p.ParseFromText(tt.line)
			if !result.Found {
				t.Fatalf("ParseFromText(%q): timestamp not found", tt.line)
			}
			if result.Timestamp.IsZero() {
				t.Errorf("ParseFromText(%q): zero timestamp", tt.line)
			}
			if result.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %q, want %q", result.Remaining, tt.wantRemaining)
			}
		})
	}
}

func TestParseFromText_NoLeadingTimestamp(t *testing.T) {
	t.Parallel()

	p := NewParser()
	result := p.ParseFromText("just a regular log message")
	if result.Found {
		t.Error("found a timestamp in plain text")
	}
	if result.Remaining != "just a regular log message" {
		t.Errorf("Remaining = %q, want the untouched input", result.Remaining)
	}
}

func TestParseTimestamp_StringLayouts(t *testing.T) {
	t.Parallel()

	p := NewParser()
	for _, input := range []string{
		"2024-01-15T10:30:45Z",
		"2024-01-15T10:30:45.123Z",
		"2024-01-15 10:30:45",
	} {
		ts, ok := p.ParseTimestamp(input)
		if !ok {
			t.Fatalf("ParseTimestamp(%q) failed", input)
		}
		if ts.Year() != 2024 || ts.Month() != time.January || ts.Day() != 15 {
			t.Errorf("ParseTimestamp(%q) = %v, want 2024-01-15", input, ts)
		}
	}
}

func TestParseTimestamp_EpochMagnitudes(t *testing.T) {
	t.Parallel()

	// 946684800 is 2000-01-01T00:00:00Z; the same instant at each epoch
	// precision exercises the magnitude-based unit guess.
	p := NewParser()
	tests := []struct {
		name     string
		value    interface{}
		wantYear int
	}{
		{"seconds float", float64(946684800), 2000},
		{"seconds int64", int64(946684800), 2000},
		{"seconds int", int(946684800), 2000},
		{"millis", float64(946684800000), 2000},
		{"micros", float64(946684800000000), 2000},
		{"nanos", float64(1600000000000000000), 2020},
		{"numeric string", "946684800", 2000},
		{"json number", json.Number("946684800"), 2000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts, ok := p.ParseTimestamp(tt.value)
			if !ok {
				t.Fatalf("ParseTimestamp(%v) failed", tt.value)
			}
			if ts.Year() != tt.wantYear {
				t.Errorf("year = %d, want %d", ts.Year(), tt.wantYear)
			}
		})
	}
}

func TestParseTimestamp_Rejects(t *testing.T) {
	t.Parallel()

	p := NewParser()
	for _, value := range []interface{}{"", "   ", "not a time", true, nil} {
		if _, ok := p.ParseTimestamp(value); ok {
			t.Errorf("ParseTimestamp(%#v) = true, want false", value)
		}
	}
}

func TestExtractLogMessage(t *testing.T) {
	t.Parallel()

	p := NewParser()
	tests := []struct {
		name string
		line string
		want string
	}{
		{"timestamp and severity", "2024-01-15T10:30:45Z INFO: server started", "server started"},
		{"severity only", "ERROR: connection refused", "connection refused"},
		{"plain message", "some log message", "some log message"},
		{"nothing left", "2024-01-15T10:30:45Z", "2024-01-15T10:30:45Z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.ExtractLogMessage(tt.line); got != tt.want {
				t.Errorf("ExtractLogMessage(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
