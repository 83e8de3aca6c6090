package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/internal/gateway/middleware"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// ServiceHandler represents a service that can be registered with the gateway
type ServiceHandler interface {
	RegisterRoutes(router gin.IRouter)
	Name() string
}

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Gateway represents the API gateway
type Gateway struct {
	config     *config.Config
	router     *gin.Engine
	logger     logger.Logger
	server     *http.Server
	monitor    *middleware.Monitor
	services   map[string]ServiceHandler
	checks     map[string]ReadinessCheck
	middleware []gin.HandlerFunc
	mu         sync.RWMutex
}

// New creates a new API gateway instance
func New(cfg *config.Config, log logger.Logger) *Gateway {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Gateway{
		config:     cfg,
		router:     gin.New(),
		logger:     log,
		monitor:    middleware.NewMonitor(log),
		services:   make(map[string]ServiceHandler),
		checks:     make(map[string]ReadinessCheck),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// RegisterService registers a service with the gateway
func (g *Gateway) RegisterService(service ServiceHandler) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := service.Name()
	if _, exists := g.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	g.services[name] = service
	g.logger.Info("Registered service: %s", name)

	return nil
}

// AddMiddleware adds middleware to the gateway
func (g *Gateway) AddMiddleware(middleware gin.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.middleware = append(g.middleware, middleware)
}

// AddReadinessCheck registers a dependency checked by /health/ready
func (g *Gateway) AddReadinessCheck(name string, check ReadinessCheck) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checks[name] = check
}

func (g *Gateway) setupMiddleware() {
	g.router.Use(gin.Recovery())
	g.router.Use(middleware.RequestIDMiddleware())
	g.router.Use(g.monitor.Handler())

	for _, middleware := range g.middleware {
		g.router.Use(middleware)
	}
}

func (g *Gateway) setupRoutes() {
	g.setupHealthRoutes()

	g.mu.RLock()
	for name, service := range g.services {
		g.logger.Debug("Setting up routes for service: %s", name)
		service.RegisterRoutes(g.router)
	}
	g.mu.RUnlock()
}

func (g *Gateway) setupHealthRoutes() {
	health := g.router.Group("/health")
	{
		health.GET("", g.healthCheck)
		health.GET("/ready", g.readinessCheck)
		health.GET("/live", g.livenessCheck)
	}
}

// Setup initializes middleware and routes
func (g *Gateway) Setup() {
	g.setupMiddleware()
	g.setupRoutes()
}

// Start runs the gateway until SIGINT or SIGTERM
func (g *Gateway) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return g.Run(ctx)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (g *Gateway) Run(ctx context.Context) error {
	g.Setup()

	g.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port),
		Handler:      g.router,
		ReadTimeout:  g.config.Server.ReadTimeout,
		WriteTimeout: g.config.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		g.logger.Info("Starting API gateway on %s", g.server.Addr)
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		g.logger.Info("Shutting down API gateway...")
		return g.Stop()
	})

	return group.Wait()
}

// Stop stops the API gateway server
func (g *Gateway) Stop() error {
	if g.server == nil {
		return nil
	}

	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return g.server.Shutdown(ctx)
}

// GetRouter returns the gin router for advanced configuration
func (g *Gateway) GetRouter() *gin.Engine {
	return g.router
}

func (g *Gateway) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"services":  g.getServiceNames(),
		"requests":  g.monitor.Snapshot().TotalRequests,
	})
}

func (g *Gateway) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	g.mu.RLock()
	checks := make(map[string]ReadinessCheck, len(g.checks))
	for name, check := range g.checks {
		checks[name] = check
	}
	g.mu.RUnlock()

	status := http.StatusOK
	results := gin.H{"gateway": "ok"}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			g.logger.WithError(err).Warn("Readiness check %s failed", name)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": results,
	})
}

func (g *Gateway) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (g *Gateway) getServiceNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.services))
	for name := range g.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
