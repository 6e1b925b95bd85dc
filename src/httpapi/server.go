// Package httpapi exposes the message service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elee1766/polaris/src/polarisagent"
)

// OwnerHeader carries the caller's identity. Authentication happens upstream.
const OwnerHeader = "X-Owner-ID"

// Messages is the part of polarisagent.Service the API serves.
type Messages interface {
	SendMessage(ctx context.Context, conversationID, text string) (*polarisagent.Sent, error)
	CancelProject(ctx context.Context, projectID string) ([]string, error)
	CreateProjectWithPrompt(ctx context.Context, ownerID, prompt string) (*polarisagent.Sent, error)
}

var _ Messages = (*polarisagent.Service)(nil)

// HealthChecker is a dependency probed by /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	messages Messages
	logger   *slog.Logger
	started  time.Time
	router   *gin.Engine

	checkNames []string
	checks     map[string]HealthChecker
}

// New builds the router. mode is a gin mode; empty keeps gin's default.
func New(messages Messages, mode string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		messages: messages,
		logger:   logger.With("component", "httpapi"),
		started:  time.Now(),
		checks:   make(map[string]HealthChecker),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(router)
	s.router = router
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.health)

	api := router.Group("/api")
	{
		api.POST("/messages", s.sendMessage)
		api.POST("/messages/cancel", s.cancelMessages)
		api.POST("/projects/create-with-prompt", s.createProjectWithPrompt)
	}
}

// AddCheck registers a dependency reported by /healthz. Not safe to call
// once the server is serving.
func (s *Server) AddCheck(name string, c HealthChecker) {
	if _, ok := s.checks[name]; !ok {
		s.checkNames = append(s.checkNames, name)
	}
	s.checks[name] = c
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then drains open requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
