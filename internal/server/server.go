package server

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/taqiudeen275/furniture-auth/internal/auth"
	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/internal/database"
	"github.com/taqiudeen275/furniture-auth/internal/gateway"
	"github.com/taqiudeen275/furniture-auth/internal/gateway/middleware"
	"github.com/taqiudeen275/furniture-auth/internal/settings"
	"github.com/taqiudeen275/furniture-auth/internal/sms"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// Server wires the services behind the gateway
type Server struct {
	config          *config.Config
	logger          logger.Logger
	db              *database.DB
	redis           *redis.Client
	gateway         *gateway.Gateway
	smsProvider     sms.SMSProvider
	authService     *auth.Service
	authHandler     *auth.Handler
	authMiddleware  *auth.Middleware
	settingsStore   *settings.RedisStore
	settingsHandler *settings.Handler
}

// New builds the server from its connections
func New(cfg *config.Config, db *database.DB, rdb *redis.Client, log logger.Logger) (*Server, error) {
	provider, err := sms.NewProvider(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMS provider: %w", err)
	}
	log.Info("SMS provider configured: %s", cfg.SMS.Provider)

	authService := auth.NewService(
		auth.NewAccountRepository(db),
		auth.NewChallengeRepository(db),
		sms.NewService(provider, cfg.SMS.AppName),
		cfg.Auth,
		log,
	)
	cookies := auth.NewCookieConfig(cfg.IsProduction())
	authMiddleware := auth.NewMiddleware(authService, cookies)

	settingsStore := settings.NewRedisStore(rdb)
	settingsHandler := settings.NewHandler(settingsStore, log,
		authMiddleware.RequireSession(),
		authMiddleware.Authorise(true, auth.RoleAdmin),
	)

	s := &Server{
		config:          cfg,
		logger:          log,
		db:              db,
		redis:           rdb,
		gateway:         gateway.New(cfg, log),
		smsProvider:     provider,
		authService:     authService,
		authHandler:     auth.NewHandler(authService, authMiddleware, cookies),
		authMiddleware:  authMiddleware,
		settingsStore:   settingsStore,
		settingsHandler: settingsHandler,
	}

	s.setupMiddleware()
	if err := s.registerServices(); err != nil {
		return nil, err
	}
	s.setupReadiness()

	return s, nil
}

// Start runs the server until it receives a shutdown signal
func (s *Server) Start() error {
	defer s.close()
	return s.gateway.Start()
}

// Run runs the server until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	defer s.close()
	return s.gateway.Run(ctx)
}

func (s *Server) setupMiddleware() {
	s.gateway.AddMiddleware(middleware.SecurityHeadersMiddleware())
	s.gateway.AddMiddleware(middleware.CORS(s.config.Server.CORS))
	s.gateway.AddMiddleware(middleware.RateLimit(
		middleware.NewRateLimiter(s.redis, s.config.Server.RateLimit),
		s.config.Server.RateLimit.Enabled,
		s.logger,
	))
	s.gateway.AddMiddleware(middleware.Maintenance(s.settingsStore, s.config.Server.MaintenanceWhitelist, s.logger))
}

func (s *Server) registerServices() error {
	for _, service := range []gateway.ServiceHandler{s.authHandler, s.settingsHandler} {
		if err := s.gateway.RegisterService(service); err != nil {
			return fmt.Errorf("failed to register %s service: %w", service.Name(), err)
		}
	}

	s.logger.Info("All services registered successfully")
	return nil
}

func (s *Server) setupReadiness() {
	s.gateway.AddReadinessCheck("postgres", s.db.Ping)
	s.gateway.AddReadinessCheck("redis", s.settingsStore.Ping)
}

func (s *Server) close() {
	if closer, ok := s.smsProvider.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close SMS provider")
		}
	}
}
