package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tinytelemetry/sage/internal/logsource"
	"github.com/tinytelemetry/sage/internal/tcpserver"
)

// inputPlugin describes one selectable log input. build runs only for
// plugins whose enabled func reports true at startup.
type inputPlugin struct {
	name    string
	enabled func() bool
	build   func(ctx context.Context) (logsource.LogSource, error)
}

// InputPluginConfig selects which inputs the server wires up.
type InputPluginConfig struct {
	TCPEnabled bool
	TCPAddr    string
}

// inputPlugins lists the known inputs in wiring order: the network listener
// first, stdin last so piped input drains once the listener is up.
func inputPlugins(cfg InputPluginConfig) []inputPlugin {
	return []inputPlugin{
		{
			name:    "tcp",
			enabled: func() bool { return cfg.TCPEnabled },
			build: func(_ context.Context) (logsource.LogSource, error) {
				srv := tcpserver.NewServer(cfg.TCPAddr)
				if err := srv.Start(); err != nil {
					return nil, fmt.Errorf("start tcp server: %w", err)
				}
				return logsource.NewTCPSource(srv), nil
			},
		},
		{
			name:    "stdin",
			enabled: stdinIsPiped,
			build: func(ctx context.Context) (logsource.LogSource, error) {
				return logsource.NewStdinSource(ctx), nil
			},
		},
	}
}

// openInputSources builds every enabled input. A plugin that fails to come
// up is logged and skipped; the server runs with whatever inputs started.
func openInputSources(ctx context.Context, cfg InputPluginConfig) []logsource.LogSource {
	var sources []logsource.LogSource
	for _, p := range inputPlugins(cfg) {
		if !p.enabled() {
			continue
		}
		src, err := p.build(ctx)
		if err != nil {
			log.Printf("input %q failed to start: %v", p.name, err)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// stdinIsPiped reports whether stdin is redirected from a pipe or file
// rather than attached to an interactive terminal.
func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
