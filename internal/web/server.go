// Package web provides an HTTP status server for the onair-agent daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweeney/onair-agent/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	logger := zap.L().Named("http")
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
	)

	engine.GET("/", s.handleIndex)
	engine.GET("/index.html", s.handleIndex)
	engine.GET("/index.json", s.handleJSON)
	engine.GET("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := renderHTML(c.Writer, snap); err != nil {
		zap.S().Named("http").Warnw("render index", "error", err)
	}
}

func (s *Server) handleJSON(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Data(http.StatusOK, "application/json", status.FormatJSON(snap))
}

// handleHealth reports 200 once the first poll cycle has completed.
func (s *Server) handleHealth(c *gin.Context) {
	snap := s.tracker.Snapshot()
	code := http.StatusOK
	if !snap.Ready() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"ready":     snap.Ready(),
		"indicator": snap.IndicatorOrUnknown(),
	})
}
