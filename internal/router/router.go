package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mealwise/backend/config"
	"github.com/mealwise/backend/internal/api"
	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/identity"
	"github.com/mealwise/backend/internal/middleware"
	"github.com/mealwise/backend/internal/ratelimit"
	"github.com/mealwise/backend/internal/service"
)

// Dependencies are the collaborators the routes are built from. Identity and
// the database are optional.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Planner  service.PlanGenerator
	Limiter  *ratelimit.Limiter
	Ledger   audit.Ledger
	Identity identity.Provider
	Verifier identity.SessionVerifier
	DB       *gorm.DB
	Redis    *redis.Client
}

// New configures the application routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))

	health := api.NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.HealthCheck)

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", health.HealthCheck)

	api.NewPlanHandler(deps.Planner, deps.Limiter, deps.Ledger, deps.Config.CompletionProvider, deps.Logger).
		RegisterRoutes(apiGroup)

	var usageMiddleware []gin.HandlerFunc
	if deps.Identity != nil && deps.Verifier != nil {
		api.NewAuthHandler(deps.Identity, deps.Verifier, deps.Logger).RegisterRoutes(apiGroup)
		usageMiddleware = append(usageMiddleware, middleware.RequireSession(deps.Verifier))
	}
	if deps.Ledger != nil {
		api.NewUsageHandler(deps.Ledger, deps.Logger).RegisterRoutes(apiGroup, usageMiddleware...)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return router
}
