package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/audit"
)

const (
	defaultUsageLimit = 20
	maxUsageLimit     = 100
)

// UsageHandler lists recent generation attempts from the ledger
type UsageHandler struct {
	ledger audit.Ledger
	logger *zap.Logger
}

func NewUsageHandler(ledger audit.Ledger, logger *zap.Logger) *UsageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageHandler{ledger: ledger, logger: logger}
}

// RegisterRoutes registers the usage endpoint behind the given middleware
func (h *UsageHandler) RegisterRoutes(router *gin.RouterGroup, mw ...gin.HandlerFunc) {
	router.GET("/usage", append(mw, h.ListUsage)...)
}

func (h *UsageHandler) ListUsage(c *gin.Context) {
	limit := defaultUsageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxUsageLimit)
	}

	records, err := h.ledger.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list usage", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": records})
}
