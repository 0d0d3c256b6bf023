package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/webcommand/internal/api/http"
	"github.com/GriffinCanCode/webcommand/internal/api/middleware"
	"github.com/GriffinCanCode/webcommand/internal/api/ws"
	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/config"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
)

// shutdownTimeout bounds graceful shutdown of plain HTTP requests.
// Hijacked WebSocket connections are closed by the relay instead.
const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	relay   *relay.Relay
	logger  *zap.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	listener net.Listener
}

// NewServer wires the routes for r.
func NewServer(cfg *config.Config, r *relay.Relay, metrics *monitoring.Metrics, logger *zap.Logger, version string) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var assets fs.FS
	if dir := cfg.Web.StaticDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", dir)
		}
		assets = os.DirFS(dir)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.NoCache())
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Web.AllowedOrigins
	router.Use(middleware.CORS(corsCfg))

	handlers := apihttp.NewHandlers(r, assets, metrics, logger.Named("http"), version)
	wsHandler := ws.NewHandler(r.Broadcaster(), r.InputHandler(), logger.Named("ws"), metrics)

	wsChain := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled {
		logger.Debug("Rate limiting WebSocket upgrades",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		wsChain = append(wsChain, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	wsChain = append(wsChain, wsHandler.HandleConnection)

	// Register routes
	router.GET("/", handlers.Index)
	router.GET("/ws", wsChain...)
	router.GET("/static/*filepath", handlers.Static)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", handlers.Metrics)
	router.NoRoute(handlers.Asset)

	return &Server{
		router:  router,
		relay:   r,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address. Run calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info("Listening", zap.String("addr", s.Addr()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	return s.Close()
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Debug("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
