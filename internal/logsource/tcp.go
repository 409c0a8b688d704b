package logsource

import (
	"github.com/tinytelemetry/sage/internal/model"
	"github.com/tinytelemetry/sage/internal/tcpserver"
)

// TCPSource adapts a running tcpserver.Server to the LogSource contract so
// the multiplexer can treat network input like any other source. The server
// must already be started; the adapter only manages shutdown.
type TCPSource struct {
	srv *tcpserver.Server
}

// NewTCPSource wraps an already-started TCP server.
func NewTCPSource(srv *tcpserver.Server) *TCPSource {
	return &TCPSource{srv: srv}
}

// Lines exposes the server's envelope stream.
func (t *TCPSource) Lines() <-chan model.IngestEnvelope { return t.srv.Lines() }

// Stop shuts the listener down and lets in-flight connections finish.
func (t *TCPSource) Stop() { _ = t.srv.Stop() }

// Name reports the source tag stamped on every envelope.
func (t *TCPSource) Name() string { return "tcp" }
