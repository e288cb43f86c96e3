/*
Package api serves the dispatch service over HTTP.

Routes:

	POST /execute           dispatch one prompt
	POST /execute_multiple  dispatch several prompts in one session
	GET  /functions         list registered functions
	GET  /sessions/:id      read a session's history
	GET  /healthz           liveness probe
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khanglvm/prompt-dispatch/internal/dispatch"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/version"
)

// shutdownTimeout bounds how long in-flight requests may run after Run's
// context is canceled.
const shutdownTimeout = 10 * time.Second

// Dispatcher is the service behind the routes.
type Dispatcher interface {
	Execute(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
	ExecuteMultiple(ctx context.Context, prompts []string, sessionID string) (*dispatch.MultiResult, error)
	History(ctx context.Context, sessionID string) ([]string, error)
}

// Catalog lists the registered functions.
type Catalog interface {
	Entries() []registry.Entry
}

// Server is the HTTP front end.
type Server struct {
	dispatcher Dispatcher
	catalog    Catalog
	logger     *slog.Logger
	engine     *gin.Engine
}

// NewServer builds the router.
func NewServer(d Dispatcher, c Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		dispatcher: d,
		catalog:    c,
		logger:     logger,
		engine:     gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.logRequests())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/execute", s.execute)
	s.engine.POST("/execute_multiple", s.executeMultiple)
	s.engine.GET("/functions", s.functions)
	s.engine.GET("/sessions/:id", s.sessionHistory)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
