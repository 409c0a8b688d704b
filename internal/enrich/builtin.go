package enrich

import (
	"os"
	"sort"
)

// HostEnricher tags records with the host name and process id. Both values
// are captured once at construction and never change for the lifetime of
// the process.
type HostEnricher struct {
	hostname string
	pid      int
}

// NewHostEnricher creates a HostEnricher. A hostname lookup failure is not
// an error: the host.name tag is simply omitted.
func NewHostEnricher() *HostEnricher {
	hostname, _ := os.Hostname()
	return &HostEnricher{
		hostname: hostname,
		pid:      os.Getpid(),
	}
}

func (e *HostEnricher) Enrich(c *Collector) {
	c.Put(KeyHostName, e.hostname)
	c.PutInt(KeyProcessPID, e.pid)
}

// EnvEnricher tags records with values resolved from OS environment
// variables. Resolution happens once at construction; variables that are
// unset or empty at that point are omitted, matching the static invariant
// even if the environment later changes.
type EnvEnricher struct {
	tags []Tag
}

// NewEnvEnricher creates an EnvEnricher from a tag-key → env-var-name
// mapping. Tags are emitted in key order for deterministic output.
func NewEnvEnricher(vars map[string]string) *EnvEnricher {
	keys := make([]string, 0, len(vars))
	for tagKey := range vars {
		keys = append(keys, tagKey)
	}
	sort.Strings(keys)

	c := NewCollector()
	for _, tagKey := range keys {
		c.Put(tagKey, os.Getenv(vars[tagKey]))
	}
	return &EnvEnricher{tags: c.Tags()}
}

func (e *EnvEnricher) Enrich(c *Collector) {
	for _, t := range e.tags {
		c.Put(t.Key, t.Value)
	}
}
