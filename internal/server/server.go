package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/config"
	"restaurant-realtime/internal/handler"
	"restaurant-realtime/internal/middleware"
	"restaurant-realtime/internal/websocket"
	"restaurant-realtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Health        *handler.HealthHandler
	Subscriptions *handler.SubscriptionHandler
	Socket        *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.Server.Mode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetupRoutes registers every endpoint. limiter may be nil, in which case
// websocket upgrades are not rate limited.
func (s *Server) SetupRoutes(handlers *Handlers, tokens *auth.TokenService, gatherer prometheus.Gatherer, limiter middleware.ConnectLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", handlers.Health.Ping)
	s.engine.GET("/health", handlers.Health.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	ws := []gin.HandlerFunc{handlers.Socket.Connect}
	if limiter != nil {
		ws = append([]gin.HandlerFunc{middleware.WebSocketRateLimitMiddleware(limiter)}, ws...)
	}
	s.engine.GET("/ws", ws...)

	subs := s.engine.Group("/v1/realtime/subscriptions", middleware.AuthMiddleware(tokens), middleware.RequireRole(auth.RoleAdmin))
	{
		subs.GET("", handlers.Subscriptions.List)
		subs.POST("/:table", handlers.Subscriptions.Subscribe)
		subs.DELETE("/:table", handlers.Subscriptions.Unsubscribe)
		subs.DELETE("", handlers.Subscriptions.UnsubscribeAll)
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
