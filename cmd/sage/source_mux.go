package main

import (
	"context"
	"sync"

	"github.com/tinytelemetry/sage/internal/logsource"
	"github.com/tinytelemetry/sage/internal/model"
)

// DefaultMuxBuffer is the fallback capacity of the merged envelope channel.
const DefaultMuxBuffer = 50_000

// SourceMux fans every configured log source into one envelope stream for
// the ingest loop. The output channel closes when all sources drain or
// after Stop, whichever comes first.
type SourceMux struct {
	sources []logsource.LogSource
	out     chan model.IngestEnvelope

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSourceMux builds a mux over the given sources. A non-positive buffer
// falls back to DefaultMuxBuffer.
func NewSourceMux(parent context.Context, sources []logsource.LogSource, buffer int) *SourceMux {
	if buffer <= 0 {
		buffer = DefaultMuxBuffer
	}
	ctx, cancel := context.WithCancel(parent)
	return &SourceMux{
		sources: sources,
		out:     make(chan model.IngestEnvelope, buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches one fan-in goroutine per source plus a closer that shuts
// the output once every source has drained.
func (m *SourceMux) Start() {
	m.startOnce.Do(func() {
		if len(m.sources) == 0 {
			m.closeOutput()
			return
		}
		for _, src := range m.sources {
			m.wg.Add(1)
			go m.fanIn(src)
		}
		go func() {
			m.wg.Wait()
			m.closeOutput()
		}()
	})
}

// Stop cancels the fan-in goroutines, stops every source, and closes the
// output channel.
func (m *SourceMux) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		for _, src := range m.sources {
			src.Stop()
		}
		m.wg.Wait()
		m.closeOutput()
	})
}

// HasSources reports whether any input came up at startup.
func (m *SourceMux) HasSources() bool {
	return len(m.sources) > 0
}

// Lines returns the merged envelope stream.
func (m *SourceMux) Lines() <-chan model.IngestEnvelope {
	return m.out
}

func (m *SourceMux) fanIn(src logsource.LogSource) {
	defer m.wg.Done()
	for {
		select {
		case env, ok := <-src.Lines():
			if !ok {
				return
			}
			if env.Line == "" {
				continue
			}
			select {
			case m.out <- env:
			case <-m.ctx.Done():
				return
			}
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *SourceMux) closeOutput() {
	m.closeOnce.Do(func() {
		close(m.out)
	})
}
