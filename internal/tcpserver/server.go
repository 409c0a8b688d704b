// Package tcpserver accepts newline-delimited log payloads over TCP and
// feeds them to the enrichment pipeline as ingest envelopes. One line is one
// envelope; framing beyond the newline (multi-line JSON bodies) is the
// assembler's job downstream.
package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/tinytelemetry/sage/internal/model"
)

const (
	defaultAddr = "127.0.0.1:4000"

	// DefaultLineChannelSize bounds how many envelopes can sit between the
	// accept goroutines and the pipeline before senders block.
	DefaultLineChannelSize = 100_000

	// DefaultMaxLineSize caps a single line at 1MB; longer lines drop the
	// connection rather than buffer unbounded input.
	DefaultMaxLineSize = 1024 * 1024
)

// ServerConfig holds the tunables for a listener.
type ServerConfig struct {
	LineChannelSize int
	MaxLineSize     int
}

// Server owns one TCP listener and a goroutine per connection.
type Server struct {
	addr     string
	listener net.Listener
	out      chan model.IngestEnvelope
	maxLine  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds a server bound to addr once Start is called. An empty
// addr falls back to localhost:4000.
func NewServer(addr string, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = defaultAddr
	}
	buffer := DefaultLineChannelSize
	maxLine := DefaultMaxLineSize
	if len(conf) > 0 {
		if conf[0].LineChannelSize > 0 {
			buffer = conf[0].LineChannelSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLine = conf[0].MaxLineSize
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		out:     make(chan model.IngestEnvelope, buffer),
		maxLine: maxLine,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the listener and begins accepting connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn reads the connection line by line until the peer closes it, a
// line exceeds the size cap, or the server shuts down.
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, s.maxLine), s.maxLine)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case s.out <- model.IngestEnvelope{Source: "tcp", Line: line}:
		case <-s.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Printf("tcpserver: closed %s: line over %d bytes", conn.RemoteAddr(), s.maxLine)
			return
		}
		log.Printf("tcpserver: read from %s: %v", conn.RemoteAddr(), err)
	}
}

// Stop closes the listener, waits for in-flight connections, and closes the
// output channel.
func (s *Server) Stop() error {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	close(s.out)
	return nil
}

// Lines returns the envelope stream consumed by the pipeline.
func (s *Server) Lines() <-chan model.IngestEnvelope {
	return s.out
}

// Addr returns the live listen address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
