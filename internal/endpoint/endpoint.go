// Package endpoint serves the remote status document polled by the agent.
// It stands in for the voice-chat bot server on a bench: the state is set
// with PUT /status instead of by chat presence.
package endpoint

import (
	"context"
	"net/http"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Values accepted for the status field.
const (
	ValueOn  = "on"
	ValueOff = "off"
)

// Document is the status document served on /status.
type Document struct {
	Status string `json:"status"`
}

// Server serves and updates a single status document.
type Server struct {
	httpServer *http.Server

	mu  sync.RWMutex
	doc Document
}

// New creates a Server with the given initial value ("on" or "off").
func New(addr, initial string) *Server {
	if initial != ValueOn {
		initial = ValueOff
	}
	s := &Server{doc: Document{Status: initial}}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	logger := zap.L().Named("endpoint")
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
	)

	engine.GET("/status", s.handleGet)
	engine.PUT("/status", s.handlePut)

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

// Set changes the served value. It reports false for values other than on/off.
func (s *Server) Set(value string) bool {
	if value != ValueOn && value != ValueOff {
		return false
	}
	s.mu.Lock()
	changed := s.doc.Status != value
	s.doc.Status = value
	s.mu.Unlock()

	if changed {
		zap.S().Named("endpoint").Infow("status changed", "status", value)
	}
	return true
}

// Current returns the served document.
func (s *Server) Current() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGet(c *gin.Context) {
	c.JSON(http.StatusOK, s.Current())
}

func (s *Server) handlePut(c *gin.Context) {
	var doc Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if !s.Set(doc.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": `status must be "on" or "off"`})
		return
	}
	c.JSON(http.StatusOK, s.Current())
}
