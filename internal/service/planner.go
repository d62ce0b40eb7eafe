package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/llm"
	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/validation"
)

// PlanService turns a validated plan request into a validated meal plan
type PlanService struct {
	client  llm.CompletionClient
	logger  *zap.Logger
	strict  bool
	timeout time.Duration
	now     func() time.Time
}

// PlanOption configures a PlanService
type PlanOption func(*PlanService)

// WithStrictShape makes cardinality mismatches fail validation instead of being logged
func WithStrictShape(strict bool) PlanOption {
	return func(s *PlanService) { s.strict = strict }
}

// WithCompletionTimeout bounds each completion call
func WithCompletionTimeout(d time.Duration) PlanOption {
	return func(s *PlanService) { s.timeout = d }
}

func WithClock(now func() time.Time) PlanOption {
	return func(s *PlanService) { s.now = now }
}

func WithPlanLogger(logger *zap.Logger) PlanOption {
	return func(s *PlanService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPlanService creates a PlanService backed by client
func NewPlanService(client llm.CompletionClient, opts ...PlanOption) *PlanService {
	s := &PlanService{
		client:  client,
		logger:  zap.NewNop(),
		timeout: 90 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate calls the completion service once and validates what comes back.
// Nothing is retried: the first failure is returned to the caller.
func (s *PlanService) Generate(ctx context.Context, req models.PlanRequest) (*models.GeneratedPlan, error) {
	prompt := BuildPrompt(req)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	plan, err := ParsePlan(CleanCompletion(raw))
	if err != nil {
		if verr, ok := err.(*validation.Error); ok {
			s.logger.Info("meal plan failed validation",
				zap.String("month_year", req.MonthYear),
				zap.Int("issues", len(verr.Issues)),
			)
		} else {
			s.logger.Error("meal plan could not be parsed", zap.Error(err))
		}
		return nil, err
	}

	if issues := CheckShape(plan); len(issues) > 0 {
		if s.strict {
			return nil, &validation.Error{Source: validation.SourceResponse, Issues: issues}
		}
		s.logger.Warn("meal plan shape differs from requested layout",
			zap.String("month_year", req.MonthYear),
			zap.Int("issues", len(issues)),
		)
	}

	return &models.GeneratedPlan{
		MealPlan:    *plan,
		GeneratedAt: s.now().UTC(),
		UserMetrics: models.UserMetrics{
			Age:    req.Age,
			Weight: req.Weight,
		},
		DietaryConstraints: models.DietaryConstraints{
			Allergies:   req.Allergies,
			Preferences: req.Preferences,
		},
	}, nil
}
