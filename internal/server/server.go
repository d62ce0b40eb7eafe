package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mealwise/backend/config"
	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/database"
	"github.com/mealwise/backend/internal/identity"
	"github.com/mealwise/backend/internal/llm"
	"github.com/mealwise/backend/internal/ratelimit"
	"github.com/mealwise/backend/internal/router"
	"github.com/mealwise/backend/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server and the resources it owns
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger

	completion llm.CompletionClient
	redis      *redis.Client
	db         *gorm.DB
}

// New wires every component selected by cfg
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{logger: logger}

	store, err := s.rateLimitStore(cfg)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitMax)

	completion, err := llm.New(cfg, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	s.completion = completion

	planner := service.NewPlanService(completion,
		service.WithStrictShape(cfg.StrictPlanShape),
		service.WithCompletionTimeout(cfg.CompletionTimeout),
		service.WithPlanLogger(logger),
	)

	deps := router.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Planner: planner,
		Limiter: limiter,
		Redis:   s.redis,
	}

	if cfg.IdentityEnabled() {
		client := identity.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, logger)
		deps.Identity = client
		if cfg.SupabaseJWTSecret != "" {
			deps.Verifier = identity.NewJWTVerifier(cfg.SupabaseJWTSecret)
		} else {
			deps.Verifier = identity.NewRemoteVerifier(client)
		}
	} else {
		logger.Info("identity provider not configured, auth endpoints disabled")
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	if db != nil {
		s.db = db
		if err := database.Migrate(db); err != nil {
			s.close()
			return nil, err
		}
		deps.DB = db
		deps.Ledger = audit.NewGormLedger(db)
	}

	s.router = router.New(deps)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.CompletionTimeout + 10*time.Second,
	}

	logger.Info("server configured",
		zap.String("addr", cfg.Addr()),
		zap.String("completion_provider", cfg.CompletionProvider),
		zap.String("rate_limit_store", cfg.RateLimitStore),
		zap.Bool("ledger", db != nil),
	)
	return s, nil
}

func (s *Server) rateLimitStore(cfg *config.Config) (ratelimit.Store, error) {
	if cfg.RateLimitStore != "redis" {
		return ratelimit.NewMemoryStore(cfg.RateLimitMaxKeys, cfg.RateLimitWindow), nil
	}
	client, err := database.NewRedisClient(cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise rate limit store: %w", err)
	}
	s.redis = client
	return ratelimit.NewRedisStore(client, cfg.RateLimitWindow, ""), nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until the server is shut down
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests for up to five seconds and releases
// the server's resources
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if closer, ok := s.completion.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close completion client", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				s.logger.Warn("failed to close database", zap.Error(err))
			}
		}
	}
}
