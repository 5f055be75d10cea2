// Package mockserver implements a scripted stand-in for the chat backend.
// It speaks the same NUL-delimited event protocol and is meant for local
// development and tests.
package mockserver

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/wire"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Request is the body accepted by POST /chat.
type Request struct {
	Message     string `json:"message" binding:"required"`
	ThreadID    string `json:"thread_id" binding:"required"`
	DocumentIDs []int  `json:"document_ids"`
}

// Script produces the events streamed in response to req.
type Script func(req Request) []ragchat.Event

// Server serves the mock API.
type Server struct {
	token  string
	delay  time.Duration
	script Script
	logger *zap.Logger
	engine *gin.Engine
}

// Option configures a [Server].
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on /chat.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithDelay sets the pause between streamed events.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// WithScript replaces DefaultScript.
func WithScript(script Script) Option {
	return func(s *Server) { s.script = script }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server and its routes.
func New(opts ...Option) *Server {
	s := &Server{
		script: DefaultScript,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/chat", s.auth(), s.chat)
	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "no such endpoint")
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) chat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		abort(c, http.StatusBadRequest, "message must not be blank")
		return
	}

	events := s.script(req)
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	i := 0
	c.Stream(func(w io.Writer) bool {
		if i >= len(events) {
			return false
		}
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.delay):
			}
		}
		data, err := wire.Encode(events[i])
		i++
		if err != nil {
			s.logger.Warn("skipping invalid scripted event", zap.Error(err))
			return true
		}
		if _, err := w.Write(data); err != nil {
			return false
		}
		return true
	})
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+s.token {
			abort(c, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// abort writes an error body in the backend's format.
func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"statusCode":    status,
		"statusMessage": http.StatusText(status),
		"message":       message,
	})
}
