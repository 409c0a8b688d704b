package container

import "github.com/tinytelemetry/sage/internal/enrich"

const staticEnricherName = "static"

// AddStaticEnricher registers a StaticEnricher with default (empty) options.
// It returns the container it was given so registrations can be chained.
func AddStaticEnricher(c *Container) (*Container, error) {
	return addStaticEnricher(c, enrich.StaticOptions{}, OriginDefaults)
}

// AddStaticEnricherWithOptions registers a StaticEnricher whose options are
// populated by the configure callback before first use.
func AddStaticEnricherWithOptions(c *Container, configure func(*enrich.StaticOptions)) (*Container, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	if configure == nil {
		return c, ErrNilConfigure
	}
	var opts enrich.StaticOptions
	configure(&opts)
	return addStaticEnricher(c, opts, OriginCallback)
}

// AddStaticEnricherFromSection registers a StaticEnricher whose options are
// bound from a named configuration section's key/value pairs.
func AddStaticEnricherFromSection(c *Container, section map[string]string) (*Container, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	if section == nil {
		return c, ErrNilSection
	}
	return addStaticEnricher(c, enrich.BindStaticOptions(section), OriginSection)
}

// addStaticEnricher is the single funnel all AddStaticEnricher variants go
// through, so every registration path has identical side effects: one new
// registration carrying its own options snapshot. Calls are additive, so
// registering twice yields two independent enrichers.
func addStaticEnricher(c *Container, opts enrich.StaticOptions, origin Origin) (*Container, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	c.append(Registration{
		Name:     staticEnricherName,
		Origin:   origin,
		Enricher: enrich.NewStaticEnricher(opts),
	})
	return c, nil
}

// AddEnricher registers an arbitrary enricher under the given name. The
// built-in host and environment enrichers are wired through this path.
func AddEnricher(c *Container, name string, e enrich.Enricher) (*Container, error) {
	if c == nil {
		return nil, ErrNilContainer
	}
	if e == nil {
		return c, ErrNilEnricher
	}
	if name == "" {
		name = "enricher"
	}
	c.append(Registration{Name: name, Origin: OriginCode, Enricher: e})
	return c, nil
}
