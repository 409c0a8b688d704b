package enrich

import (
	"sort"
	"strings"
)

// StaticOptions controls the tags a StaticEnricher contributes. Fields left
// empty are omitted from the output. Options are bound once at registration
// and are immutable for the lifetime of the process.
type StaticOptions struct {
	ApplicationName string
	Environment     string
	Version         string
	// Extra holds free-form tags emitted verbatim, keyed by tag name.
	Extra map[string]string
}

// BindStaticOptions populates StaticOptions from a flat key/value section.
// Binding is explicit field-by-field: known keys are matched after
// canonicalization (case, "-", "_" and "." are ignored, so both
// "application-name" and "ApplicationName" bind the same field), and
// unknown keys land in Extra as verbatim tags.
func BindStaticOptions(values map[string]string) StaticOptions {
	var opts StaticOptions
	for key, value := range values {
		switch canonicalOptionKey(key) {
		case "applicationname", "application":
			opts.ApplicationName = value
		case "environment":
			opts.Environment = value
		case "version":
			opts.Version = value
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]string)
			}
			opts.Extra[key] = value
		}
	}
	return opts
}

func canonicalOptionKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.':
			return -1
		}
		return r
	}, key)
}

// StaticEnricher contributes the tags described by its bound options. The
// tag list is computed once at construction, so Enrich does no per-record
// work beyond appending to the collector and the same tags are produced on
// every invocation.
type StaticEnricher struct {
	tags []Tag
}

// NewStaticEnricher creates a StaticEnricher from bound options. Unset
// option fields produce no tag. Extra tags are emitted after the named
// fields, in key order for deterministic output.
func NewStaticEnricher(opts StaticOptions) *StaticEnricher {
	tags := make([]Tag, 0, 3+len(opts.Extra))
	if opts.ApplicationName != "" {
		tags = append(tags, Tag{Key: KeyApp, Value: opts.ApplicationName})
	}
	if opts.Environment != "" {
		tags = append(tags, Tag{Key: KeyEnvironment, Value: opts.Environment})
	}
	if opts.Version != "" {
		tags = append(tags, Tag{Key: KeyVersion, Value: opts.Version})
	}
	if len(opts.Extra) > 0 {
		keys := make([]string, 0, len(opts.Extra))
		for k := range opts.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if opts.Extra[k] == "" {
				continue
			}
			tags = append(tags, Tag{Key: k, Value: opts.Extra[k]})
		}
	}
	return &StaticEnricher{tags: tags}
}

func (e *StaticEnricher) Enrich(c *Collector) {
	for _, t := range e.tags {
		c.Put(t.Key, t.Value)
	}
}

// Tags returns the enricher's static tag set, for introspection surfaces.
func (e *StaticEnricher) Tags() []Tag {
	out := make([]Tag, len(e.tags))
	copy(out, e.tags)
	return out
}
