package service

import (
	"fmt"

	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/validation"
)

// ParsePlan decodes cleaned completion text into a MealPlan. Syntax errors
// wrap ErrResponseParse; a well-formed document with the wrong shape yields a
// *validation.Error listing every violation.
func ParsePlan(cleaned string) (*models.MealPlan, error) {
	var plan models.MealPlan
	err := validation.Decode([]byte(cleaned), &plan, validation.SourceResponse)
	if err == nil {
		return &plan, nil
	}
	if malformed, ok := err.(*validation.MalformedError); ok {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, malformed.Err)
	}
	return nil, err
}
