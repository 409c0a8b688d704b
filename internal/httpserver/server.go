package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/sage/internal/container"
	"github.com/tinytelemetry/sage/internal/enrich"
	"github.com/tinytelemetry/sage/internal/model"
	"github.com/tinytelemetry/sage/internal/pipeline"
)

// Ingestor is the narrow pipeline contract required by the ingest endpoint.
type Ingestor interface {
	ProcessEnvelope(env model.IngestEnvelope) *pipeline.Result
}

// Server provides the HTTP API: health, enricher introspection, recent
// records, and line ingestion.
type Server struct {
	addr      string
	store     model.LogReader
	regs      *container.Container
	ingestor  Ingestor
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store model.LogReader, regs *container.Container, ingestor Ingestor) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		store:    store,
		regs:     regs,
		ingestor: ingestor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/enrichers", s.handleEnrichers)
	r.GET("/api/logs/recent", s.handleRecentLogs)
	r.POST("/api/ingest", s.handleIngest)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := s.routes()

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	logCount, err := s.store.TotalLogCount(model.QueryOpts{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).String(),
		"log_count": logCount,
		"enrichers": s.regs.Len(),
	})
}

// handleEnrichers lists registrations in registration order, which is also
// the order enrichers run in.
func (s *Server) handleEnrichers(c *gin.Context) {
	regs := s.regs.Registrations()
	out := make([]gin.H, 0, len(regs))
	for i, reg := range regs {
		item := gin.H{
			"position": i,
			"name":     reg.Name,
			"origin":   string(reg.Origin),
		}
		if static, ok := reg.Enricher.(*enrich.StaticEnricher); ok {
			tags := static.Tags()
			tagMap := make(map[string]string, len(tags))
			for _, t := range tags {
				tagMap[t.Key] = t.Value
			}
			item["tags"] = tagMap
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(out),
		"enrichers": out,
	})
}

func (s *Server) handleRecentLogs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := s.store.RecentLogs(limit, model.QueryOpts{App: c.Query("app")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		out = append(out, gin.H{
			"timestamp":  r.Timestamp,
			"level":      r.Level,
			"message":    r.Message,
			"service":    r.Service,
			"hostname":   r.Hostname,
			"attributes": r.Attributes,
			"source":     r.Source,
			"app":        r.App,
			"event_id":   r.EventID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"logs":  out,
	})
}

func (s *Server) handleIngest(c *gin.Context) {
	if s.ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion not available"})
		return
	}

	var req struct {
		Lines []string `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing lines field"})
		return
	}

	accepted := 0
	for _, line := range req.Lines {
		if result := s.ingestor.ProcessEnvelope(model.IngestEnvelope{Source: "http", Line: line}); result != nil {
			accepted++
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"received": len(req.Lines),
		"accepted": accepted,
	})
}
