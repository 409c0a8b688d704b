// Package container holds the ordered enricher registrations wired at
// startup. It plays the dependency-injection role the pipeline resolves
// enrichers from: registrations accumulate in call order, and the pipeline
// invokes enrichers in exactly that order.
package container

import (
	"sync"

	"github.com/tinytelemetry/sage/internal/enrich"
)

// Origin records which registration path bound an enricher's options.
type Origin string

const (
	OriginDefaults Origin = "defaults"
	OriginCallback Origin = "callback"
	OriginSection  Origin = "section"
	OriginCode     Origin = "code"
)

// Registration is one enricher registration with its bound options snapshot.
// Each call to a registration helper appends a new independent Registration;
// registrations never replace one another.
type Registration struct {
	Name     string
	Origin   Origin
	Enricher enrich.Enricher
}

// Container accumulates enricher registrations. Registration happens on the
// startup goroutine before the pipeline is built; reads at emission time are
// guarded so introspection surfaces (HTTP API) can list registrations while
// the pipeline runs.
type Container struct {
	mu   sync.RWMutex
	regs []Registration
}

// New creates an empty container.
func New() *Container {
	return &Container{}
}

func (c *Container) append(reg Registration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs = append(c.regs, reg)
}

// Enrichers returns the registered enrichers in registration order. This is
// the invocation order the pipeline guarantees.
func (c *Container) Enrichers() []enrich.Enricher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]enrich.Enricher, len(c.regs))
	for i, reg := range c.regs {
		out[i] = reg.Enricher
	}
	return out
}

// Registrations returns a copy of all registrations in registration order.
func (c *Container) Registrations() []Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Registration, len(c.regs))
	copy(out, c.regs)
	return out
}

// Len returns the number of registrations.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regs)
}
