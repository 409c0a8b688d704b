package ingest

import (
	"regexp"
	"strings"
)

// severityRegex matches common severity levels in log text.
var severityRegex = regexp.MustCompile(`(?i)\b(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)\b`)

// NormalizeSeverity converts assorted severity spellings to the canonical
// all-caps short forms. Unrecognized input defaults to INFO.
func NormalizeSeverity(severity string) string {
	normalized := strings.ToUpper(strings.TrimSpace(severity))

	switch normalized {
	case "TRACE", "TRC":
		return "TRACE"
	case "DEBUG", "DBG":
		return "DEBUG"
	case "INFO", "INFORMATION", "INF":
		return "INFO"
	case "WARN", "WARNING", "WRN":
		return "WARN"
	case "ERROR", "ERR":
		return "ERROR"
	case "FATAL", "FTL", "CRITICAL", "CRIT", "PANIC":
		return "FATAL"
	}

	if len(normalized) >= 4 {
		switch normalized[:4] {
		case "INFO":
			return "INFO"
		case "WARN":
			return "WARN"
		case "ERRO":
			return "ERROR"
		case "DEBU":
			return "DEBUG"
		case "TRAC":
			return "TRACE"
		case "FATA", "CRIT":
			return "FATAL"
		}
	}
	return "INFO"
}

// ExtractSeverityFromText pulls a severity level out of free-form message
// text, defaulting to INFO when none is present.
func ExtractSeverityFromText(message string) string {
	matches := severityRegex.FindStringSubmatch(message)
	if len(matches) > 1 {
		return NormalizeSeverity(matches[1])
	}
	return "INFO"
}

// SeverityFromOTELNumber maps an OTel SeverityNumber (1-24) to its text form.
func SeverityFromOTELNumber(number int) string {
	switch {
	case number >= 1 && number <= 4:
		return "TRACE"
	case number >= 5 && number <= 8:
		return "DEBUG"
	case number >= 9 && number <= 12:
		return "INFO"
	case number >= 13 && number <= 16:
		return "WARN"
	case number >= 17 && number <= 20:
		return "ERROR"
	case number >= 21 && number <= 24:
		return "FATAL"
	default:
		return ""
	}
}

// pinoLevelToString converts pino/bunyan numeric levels to severity text.
func pinoLevelToString(level int) string {
	switch {
	case level < 20:
		return "TRACE"
	case level < 30:
		return "DEBUG"
	case level < 40:
		return "INFO"
	case level < 50:
		return "WARN"
	case level < 60:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// DefaultOTELSeverityNumber returns the canonical SeverityNumber for a
// normalized severity level.
func DefaultOTELSeverityNumber(level string) int {
	switch NormalizeSeverity(level) {
	case "TRACE":
		return 1
	case "DEBUG":
		return 5
	case "WARN":
		return 13
	case "ERROR":
		return 17
	case "FATAL":
		return 21
	default:
		return 9
	}
}
