package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/middleware"
	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/ratelimit"
	"github.com/mealwise/backend/internal/service"
	"github.com/mealwise/backend/internal/validation"
)

const (
	contextOutcome   = "generation_outcome"
	contextMonthYear = "generation_month_year"
)

// PlanHandler serves meal plan generation
type PlanHandler struct {
	planner  service.PlanGenerator
	limiter  *ratelimit.Limiter
	ledger   audit.Ledger
	provider string
	logger   *zap.Logger
}

// NewPlanHandler creates a PlanHandler. A nil ledger records nothing.
func NewPlanHandler(planner service.PlanGenerator, limiter *ratelimit.Limiter, ledger audit.Ledger, provider string, logger *zap.Logger) *PlanHandler {
	if ledger == nil {
		ledger = audit.NopLedger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validation.Engine()
	return &PlanHandler{
		planner:  planner,
		limiter:  limiter,
		ledger:   ledger,
		provider: provider,
		logger:   logger,
	}
}

// RegisterRoutes accepts every method so the rate limit is charged before
// the method is checked
func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.Any("/generate-plan",
		h.recordAttempt,
		middleware.RateLimit(h.limiter, h.logger),
		h.GeneratePlan,
	)
}

// GeneratePlan validates the request, generates a plan and returns it with
// the constraints it was generated for
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Set(contextOutcome, audit.OutcomeMethodNotAllowed)
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.Set(contextOutcome, audit.OutcomeRequestInvalid)
		c.JSON(http.StatusUnprocessableEntity, malformedBody())
		return
	}

	var req models.PlanRequest
	if err := validation.Decode(body, &req, validation.SourceRequest); err != nil {
		c.Set(contextOutcome, audit.OutcomeRequestInvalid)
		var verr *validation.Error
		if errors.As(err, &verr) {
			h.logger.Info("plan request failed validation", zap.Int("issues", len(verr.Issues)))
			c.JSON(http.StatusUnprocessableEntity, validationBody(verr))
			return
		}
		c.JSON(http.StatusUnprocessableEntity, malformedBody())
		return
	}
	c.Set(contextMonthYear, req.MonthYear)

	plan, err := h.planner.Generate(c.Request.Context(), req)
	if err != nil {
		f := classifyGenerationError(err)
		c.Set(contextOutcome, f.outcome)
		if f.outcome == audit.OutcomeUnknown {
			h.logger.Error("plan generation failed", zap.Error(err))
		}
		_ = c.Error(err)
		c.JSON(f.status, f.body)
		return
	}

	c.Set(contextOutcome, audit.OutcomeOK)
	c.JSON(http.StatusOK, plan)
}

// recordAttempt writes one ledger entry per request once it has been handled.
// Ledger failures are logged and never change the response.
func (h *PlanHandler) recordAttempt(c *gin.Context) {
	start := time.Now()
	c.Next()

	outcome, ok := c.Get(contextOutcome)
	if !ok {
		outcome = outcomeFromStatus(c.Writer.Status())
	}

	entry := audit.Entry{
		ClientKey:  c.GetString(middleware.ContextClientKey),
		MonthYear:  c.GetString(contextMonthYear),
		Provider:   h.provider,
		Outcome:    outcome.(audit.Outcome),
		StatusCode: c.Writer.Status(),
		Duration:   time.Since(start),
	}
	if err := h.ledger.Record(c.Request.Context(), entry); err != nil {
		h.logger.Warn("failed to record generation attempt", zap.Error(err))
	}
}

func outcomeFromStatus(status int) audit.Outcome {
	switch status {
	case http.StatusOK:
		return audit.OutcomeOK
	case http.StatusTooManyRequests:
		return audit.OutcomeRateLimited
	default:
		return audit.OutcomeUnknown
	}
}
