package pipeline

import "strings"

// Assembler accumulates multi-line JSON objects (pretty-printed OTLP
// payloads arrive this way over TCP) into single lines. It is stateful and
// must only be used from one goroutine; the server's ingest loop owns one.
type Assembler struct {
	buf      strings.Builder
	depth    int
	inObject bool
}

// Feed consumes one raw line. It returns (line, true) when a complete
// payload is available: either the line itself when no accumulation is in
// progress, or the assembled JSON object once braces balance. It returns
// ("", false) while a partial object is still being accumulated.
func (a *Assembler) Feed(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)

	if !a.inObject {
		if !strings.HasPrefix(trimmed, "{") {
			return line, true
		}
		a.inObject = true
		a.buf.Reset()
		a.depth = 0
	}

	a.buf.WriteString(line)
	a.buf.WriteString("\n")
	a.depth += jsonDepthDelta(line)

	if a.depth > 0 {
		return "", false
	}

	complete := strings.TrimSpace(a.buf.String())
	a.reset()
	return complete, true
}

// Pending reports whether a partial object is being accumulated.
func (a *Assembler) Pending() bool {
	return a.inObject
}

func (a *Assembler) reset() {
	a.inObject = false
	a.depth = 0
	a.buf.Reset()
}

// jsonDepthDelta counts the net change in JSON nesting depth for a line,
// ignoring braces inside string literals.
func jsonDepthDelta(line string) int {
	depth := 0
	inString := false
	escaped := false

	for _, char := range line {
		if escaped {
			escaped = false
			continue
		}
		switch char {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
			}
		}
	}
	return depth
}
