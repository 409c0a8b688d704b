// Package timestamp recovers original event times from log lines and
// structured time fields. Sources report times in many shapes: RFC3339,
// space-separated ISO variants, syslog prefixes, bare clock times, and unix
// epochs at varying precision.
package timestamp

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of scanning a text line for a leading timestamp.
type Result struct {
	Found     bool
	Timestamp time.Time
	Remaining string
}

// Parser extracts timestamps from log text and scalar values.
type Parser struct{}

// NewParser creates a timestamp parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	// ISO-8601 / RFC3339 with T or space separator, optional fraction
	// (dot or comma) and optional zone.
	isoPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}:\d{2})([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	// Syslog style: "Jan 15 10:30:45".
	syslogPattern = regexp.MustCompile(`^([A-Z][a-z]{2}) +(\d{1,2}) (\d{2}:\d{2}:\d{2})`)
	// Bare clock time: "10:30:45" or "10:30:45.123".
	timeOnlyPattern = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2})([.,]\d+)?`)

	severityPrefixPattern = regexp.MustCompile(`^(?i)(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)[:\]\s-]+`)
)

// ParseFromText scans the start of a line for a timestamp. When found, the
// timestamp and the rest of the line are returned; otherwise Remaining is
// the unmodified input.
func (p *Parser) ParseFromText(text string) Result {
	if m := isoPattern.FindStringSubmatch(text); m != nil {
		frac := strings.Replace(m[3], ",", ".", 1)
		candidate := m[1] + "T" + m[2] + frac + m[4]
		layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05.999999999-0700"}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, candidate); err == nil {
				return Result{Found: true, Timestamp: ts, Remaining: strings.TrimSpace(text[len(m[0]):])}
			}
		}
	}

	if m := syslogPattern.FindStringSubmatch(text); m != nil {
		if ts, err := time.Parse("Jan 2 15:04:05", m[1]+" "+m[2]+" "+m[3]); err == nil {
			// Syslog omits the year; assume the current one.
			now := time.Now()
			ts = ts.AddDate(now.Year(), 0, 0)
			return Result{Found: true, Timestamp: ts, Remaining: strings.TrimSpace(text[len(m[0]):])}
		}
	}

	if m := timeOnlyPattern.FindStringSubmatch(text); m != nil {
		frac := strings.Replace(m[2], ",", ".", 1)
		if clock, err := time.Parse("15:04:05.999999999", m[1]+frac); err == nil {
			now := time.Now()
			ts := time.Date(now.Year(), now.Month(), now.Day(),
				clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), now.Location())
			return Result{Found: true, Timestamp: ts, Remaining: strings.TrimSpace(text[len(m[0]):])}
		}
	}

	return Result{Found: false, Remaining: text}
}

// ParseTimestamp converts a scalar time value (string layout or unix epoch
// in seconds, millis, micros, or nanos) into a time.Time.
func (p *Parser) ParseTimestamp(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05.999999999",
			"2006-01-02 15:04:05",
		} {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts, true
			}
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return parseUnixTimestamp(n), true
		}
		return time.Time{}, false
	case float64:
		return parseUnixTimestamp(v), true
	case int64:
		return parseUnixTimestamp(float64(v)), true
	case int:
		return parseUnixTimestamp(float64(v)), true
	case json.Number:
		if n, err := strconv.ParseFloat(string(v), 64); err == nil {
			return parseUnixTimestamp(n), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// parseUnixTimestamp guesses epoch precision by magnitude: values up to 1e9
// are seconds, then millis up to 1e12, micros up to 1e15, nanos beyond.
func parseUnixTimestamp(n float64) time.Time {
	switch {
	case n <= 1e9:
		return time.Unix(int64(n), 0)
	case n <= 1e12:
		return time.UnixMilli(int64(n))
	case n <= 1e15:
		return time.UnixMicro(int64(n))
	default:
		return time.Unix(0, int64(n))
	}
}

// ExtractLogMessage strips a leading timestamp and severity prefix, leaving
// the human message.
func (p *Parser) ExtractLogMessage(line string) string {
	remaining := p.ParseFromText(line).Remaining
	remaining = severityPrefixPattern.ReplaceAllString(remaining, "")
	remaining = strings.TrimSpace(remaining)
	if remaining == "" {
		return line
	}
	return remaining
}
