package service

import (
	"context"

	"github.com/mealwise/backend/internal/models"
)

// PlanGenerator produces a validated meal plan for a request
type PlanGenerator interface {
	Generate(ctx context.Context, req models.PlanRequest) (*models.GeneratedPlan, error)
}

var _ PlanGenerator = (*PlanService)(nil)
