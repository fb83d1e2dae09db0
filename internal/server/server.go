package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/browser"
	"github.com/pagecast/backend/internal/config"
	httpapi "github.com/pagecast/backend/internal/http"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/middleware"
	"github.com/pagecast/backend/internal/monitoring"
	"github.com/pagecast/backend/internal/session"
	"github.com/pagecast/backend/internal/types"
	"github.com/pagecast/backend/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	sessions *session.Manager
	metrics  *monitoring.Metrics
	log      *logging.Logger
	httpSrv  *http.Server
}

// rodDriver adapts the concrete browser driver to the session layer's
// interface; its StartCapture narrows *browser.Capture to session.Capture.
type rodDriver struct {
	*browser.Driver
}

func (d rodDriver) StartCapture(ctx context.Context, quality int, onFrame func(types.Frame)) (session.Capture, error) {
	return d.Driver.StartCapture(ctx, quality, onFrame)
}

func launchBrowser(ctx context.Context, cfg config.BrowserConfig, log *logging.Logger) (session.Driver, error) {
	d, err := browser.Launch(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return rodDriver{d}, nil
}

// New creates a new server instance
func New(cfg *config.Config, log *logging.Logger) *Server {
	metrics := monitoring.NewMetrics()

	sessions := session.NewManager(cfg.Browser, cfg.Stream, launchBrowser, log, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		log.Info("HTTP rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.EventsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst))
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.EventsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := httpapi.NewHandlers(sessions)
	wsHandler := ws.NewHandler(sessions, cfg.Stream, cfg.RateLimit, metrics, log)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	log.Info("Server initialized",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Int("viewport_width", cfg.Browser.ViewportWidth),
		zap.Int("viewport_height", cfg.Browser.ViewportHeight))

	return &Server{
		cfg:      cfg,
		router:   router,
		sessions: sessions,
		metrics:  metrics,
		log:      log,
	}
}

// Sessions exposes the session registry, used by shutdown handling.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.log.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down: live browser sessions are torn down first,
// then the HTTP listener drains.
func (s *Server) Close() error {
	s.log.Info("Shutting down server...")

	s.sessions.CloseAll()
	s.log.Info("All sessions closed")

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.Error("HTTP shutdown", zap.Error(err))
			return err
		}
	}

	s.log.Sync()
	return nil
}
