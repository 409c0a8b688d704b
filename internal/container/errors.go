package container

import "errors"

// Sentinel errors for registration argument validation. Each registration
// helper validates its arguments before touching the container, so a
// failed call never leaves a partial registration behind.
var (
	ErrNilContainer = errors.New("container is nil")
	ErrNilConfigure = errors.New("configure callback is nil")
	ErrNilSection   = errors.New("configuration section is nil")
	ErrNilEnricher  = errors.New("enricher is nil")
)
