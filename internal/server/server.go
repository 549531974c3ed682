// Package server exposes the challenge handler over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/handler"
)

// Config configures the HTTP server.
type Config struct {
	Addr string `yaml:"addr"`

	// Diagnostics adds error details to 5xx responses.
	Diagnostics bool `yaml:"diagnostics"`

	// AllowedOrigins for CORS. Empty or "*" allows every origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`

	// PurgeInterval runs the expired-record purge in the background when
	// positive and a purger is configured.
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// DefaultConfig returns the defaults used by `challenges serve`.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Validate checks the server configuration.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("server addr must not be empty")
	}
	if c.ReadHeaderTimeout < 0 || c.ShutdownTimeout < 0 || c.PurgeInterval < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

// Server is the gin front end of a handler.Handler.
type Server struct {
	cfg     Config
	handler *handler.Handler
	logger  *zap.Logger
	router  *gin.Engine
}

// New builds the router. A nil logger discards logs.
func New(cfg Config, h *handler.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, handler: h, logger: logger}
	s.router = s.newRouter()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))

	corsConfig := cors.DefaultConfig()
	origins := lo.Filter(s.cfg.AllowedOrigins, func(o string, _ int) bool { return o != "" })
	if len(origins) == 0 || lo.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/challenges", s.createChallenge)
	router.GET("/challenges", s.listChallenges)
	return router
}

func (s *Server) createChallenge(c *gin.Context) {
	var req challenge.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	out, err := s.handler.Handle(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type historyItem struct {
	ID        string    `json:"id"`
	Challenge string    `json:"challenge"`
	Theme     string    `json:"theme"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
	Model     string    `json:"model,omitempty"`
}

func (s *Server) listChallenges(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("'limit' debe estar entre 1 y %d", maxHistoryLimit)})
			return
		}
		limit = n
	}

	records, err := s.handler.Recent(c.Request.Context(), c.Query("tematica"), c.Query("nivel"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	items := lo.Map(records, func(r challenge.StoredQuestion, _ int) historyItem {
		return historyItem{
			ID:        r.ID,
			Challenge: r.Text,
			Theme:     r.Theme,
			Level:     r.Level,
			CreatedAt: r.CreatedAt,
			Model:     r.SourceModel,
		}
	})
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
