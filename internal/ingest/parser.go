// Package ingest turns raw log lines into canonical records. It understands
// the OTLP log data model in JSON form (full resourceLogs envelopes, bare
// scopeLogs/logRecords fragments, and single log-record objects), generic
// structured JSON logs, and falls back to plain-text records for everything
// else.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/sage/internal/model"
	"github.com/tinytelemetry/sage/internal/timestamp"
)

var tsParser = timestamp.NewParser()

// Parse parses one line into zero or more records. A nil result means the
// line is not JSON; callers should fall back to Fallback.
func Parse(line string) []*model.LogRecord {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil
	}

	if resourceLogs, ok := raw["resourceLogs"]; ok {
		return parseResourceLogs(resourceLogs, line)
	}
	if scopeLogs, ok := raw["scopeLogs"]; ok {
		inherited := resourceAttributes(raw["resource"])
		return parseScopeLogs(scopeLogs, inherited, line)
	}
	if logRecords, ok := raw["logRecords"]; ok {
		inherited := resourceAttributes(raw["resource"])
		return parseLogRecords(logRecords, inherited, line)
	}
	if isOTELLogRecord(raw) {
		if record := parseLogRecord(raw, nil, line); record != nil {
			return []*model.LogRecord{record}
		}
		return nil
	}

	if record := parseGenericJSON(raw, line); record != nil {
		return []*model.LogRecord{record}
	}
	return nil
}

// ParseOne parses a line and returns the first record, or nil.
func ParseOne(line string) *model.LogRecord {
	records := Parse(line)
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

// Fallback creates a plain-text record from a line that is not structured.
// Severity is sniffed from the message text, and a leading timestamp (ISO,
// syslog, or bare clock time) becomes the record's original timestamp.
func Fallback(line string) *model.LogRecord {
	message := sanitizeMessage(line)
	level := ExtractSeverityFromText(message)

	var origTS time.Time
	if parsed := tsParser.ParseFromText(message); parsed.Found {
		origTS = parsed.Timestamp
		if parsed.Remaining != "" {
			message = parsed.Remaining
		}
	}

	return &model.LogRecord{
		Timestamp:     time.Now(),
		OrigTimestamp: origTS,
		Level:         level,
		LevelNum:      DefaultOTELSeverityNumber(level),
		Message:       message,
		RawLine:       line,
		Attributes:    map[string]string{},
		App:           "default",
	}
}

func parseResourceLogs(value interface{}, line string) []*model.LogRecord {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	var records []*model.LogRecord
	for _, item := range items {
		resourceLog, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		inherited := resourceAttributes(resourceLog["resource"])
		records = append(records, parseScopeLogs(resourceLog["scopeLogs"], inherited, line)...)
	}
	return records
}

func parseScopeLogs(value interface{}, inherited map[string]string, line string) []*model.LogRecord {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	var records []*model.LogRecord
	for _, item := range items {
		scopeLog, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		attrs := cloneAttrs(inherited)
		mergeAttrs(attrs, keyValueAttributes(scopeLog["attributes"]))

		if scope, ok := scopeLog["scope"].(map[string]interface{}); ok {
			if name := stringField(scope, "name"); name != "" {
				attrs["otel.scope.name"] = name
			}
			if version := stringField(scope, "version"); version != "" {
				attrs["otel.scope.version"] = version
			}
			mergeAttrs(attrs, keyValueAttributes(scope["attributes"]))
		}

		records = append(records, parseLogRecords(scopeLog["logRecords"], attrs, line)...)
	}
	return records
}

func parseLogRecords(value interface{}, inherited map[string]string, line string) []*model.LogRecord {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	records := make([]*model.LogRecord, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if record := parseLogRecord(raw, inherited, line); record != nil {
			records = append(records, record)
		}
	}
	return records
}

func parseLogRecord(raw map[string]interface{}, inherited map[string]string, line string) *model.LogRecord {
	attrs := cloneAttrs(inherited)
	mergeAttrs(attrs, keyValueAttributes(raw["attributes"]))

	if traceID := stringField(raw, "traceId"); traceID != "" {
		attrs["trace.id"] = traceID
	}
	if spanID := stringField(raw, "spanId"); spanID != "" {
		attrs["span.id"] = spanID
	}

	rawLine := line
	if encoded, err := json.Marshal(raw); err == nil {
		rawLine = string(encoded)
	}

	message := anyValueString(raw["body"])
	if message == "" {
		message = rawLine
	}
	message = sanitizeMessage(message)

	severityNumber := intField(raw["severityNumber"])
	severity := stringField(raw, "severityText")
	if severity == "" && severityNumber > 0 {
		severity = SeverityFromOTELNumber(severityNumber)
	}
	level := NormalizeSeverity(severity)
	if severityNumber == 0 {
		severityNumber = DefaultOTELSeverityNumber(level)
	}

	return &model.LogRecord{
		Timestamp:     time.Now(),
		OrigTimestamp: otelTimestamp(raw),
		Level:         level,
		LevelNum:      severityNumber,
		Message:       message,
		RawLine:       rawLine,
		Attributes:    attrs,
		App:           appFromAttributes(attrs),
	}
}

// parseGenericJSON handles structured logs outside the OTLP shape: a flat
// object with message and level fields in common spellings. Remaining
// scalar fields become attributes.
func parseGenericJSON(raw map[string]interface{}, line string) *model.LogRecord {
	message := stringField(raw, "msg", "message")
	levelText := stringField(raw, "level", "severity", "lvl")
	if message == "" && levelText == "" {
		return nil
	}

	attrs := map[string]string{}
	for key, value := range raw {
		switch key {
		case "msg", "message", "level", "severity", "lvl", "time", "timestamp", "ts", "_app":
			continue
		}
		if s := stringifyScalar(value); s != "" {
			attrs[key] = s
		}
	}

	var level string
	switch {
	case levelText == "":
		level = ExtractSeverityFromText(message)
	default:
		if n, err := strconv.Atoi(levelText); err == nil {
			// pino/bunyan numeric levels: 10..60.
			level = pinoLevelToString(n)
		} else {
			level = NormalizeSeverity(levelText)
		}
	}
	if message == "" {
		message = line
	}

	app := stringField(raw, "_app")
	if app == "" {
		app = appFromAttributes(attrs)
	}

	var origTS time.Time
	for _, key := range []string{"time", "timestamp", "ts"} {
		if value, ok := raw[key]; ok {
			if parsed, ok := tsParser.ParseTimestamp(value); ok {
				origTS = parsed
				break
			}
		}
	}

	return &model.LogRecord{
		Timestamp:     time.Now(),
		OrigTimestamp: origTS,
		Level:         level,
		LevelNum:      DefaultOTELSeverityNumber(level),
		Message:       sanitizeMessage(message),
		RawLine:       line,
		Attributes:    attrs,
		App:           app,
	}
}

// ExtractService extracts the service name from record attributes.
func ExtractService(attributes map[string]string) string {
	for _, key := range []string{"service.name", "service", "serviceName", "app", "name"} {
		if s := attributes[key]; s != "" {
			return s
		}
	}
	return "unknown"
}

func appFromAttributes(attributes map[string]string) string {
	for _, key := range []string{"app", "service.name", "service_name", "service", "name"} {
		if value := attributes[key]; value != "" {
			return value
		}
	}
	return "default"
}

func resourceAttributes(value interface{}) map[string]string {
	resource, ok := value.(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	return keyValueAttributes(resource["attributes"])
}

// keyValueAttributes flattens an OTLP attribute list ([{key, value}, ...])
// into a string map.
func keyValueAttributes(value interface{}) map[string]string {
	out := map[string]string{}
	attributes, ok := value.([]interface{})
	if !ok {
		return out
	}

	for _, item := range attributes {
		attr, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		key := stringField(attr, "key")
		if key == "" {
			continue
		}
		if val := anyValueString(attr["value"]); val != "" {
			out[key] = val
		}
	}
	return out
}

// anyValueString stringifies an OTLP AnyValue (or a plain JSON scalar).
func anyValueString(value interface{}) string {
	anyValue, ok := value.(map[string]interface{})
	if !ok {
		return stringifyScalar(value)
	}

	for _, key := range []string{"stringValue", "boolValue", "intValue", "doubleValue", "bytesValue"} {
		if val, ok := anyValue[key]; ok {
			return stringifyScalar(val)
		}
	}

	if arrayValue, ok := anyValue["arrayValue"].(map[string]interface{}); ok {
		if vals, ok := arrayValue["values"].([]interface{}); ok {
			parts := make([]string, 0, len(vals))
			for _, v := range vals {
				if part := anyValueString(v); part != "" {
					parts = append(parts, part)
				}
			}
			return strings.Join(parts, ",")
		}
	}
	if kvList, ok := anyValue["kvlistValue"].(map[string]interface{}); ok {
		return stringifyScalar(kvList["values"])
	}
	return stringifyScalar(anyValue)
}

func otelTimestamp(raw map[string]interface{}) time.Time {
	for _, key := range []string{"timeUnixNano", "observedTimeUnixNano"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return time.Unix(0, n)
			}
		case float64:
			return time.Unix(0, int64(v))
		}
	}
	return time.Time{}
}

func isOTELLogRecord(raw map[string]interface{}) bool {
	for _, key := range []string{
		"timeUnixNano", "observedTimeUnixNano",
		"severityNumber", "severityText",
		"traceId", "spanId",
	} {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	_, hasBody := raw["body"]
	_, hasAttrs := raw["attributes"]
	return hasBody && hasAttrs
}

func intField(value interface{}) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func stringField(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s := stringifyScalar(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringifyScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return ""
}

func sanitizeMessage(message string) string {
	clean := strings.ReplaceAll(message, "\t", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.ReplaceAll(clean, "\r", " ")
}

func cloneAttrs(attributes map[string]string) map[string]string {
	out := make(map[string]string, len(attributes))
	for k, v := range attributes {
		out[k] = v
	}
	return out
}

func mergeAttrs(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
