package service

import (
	"fmt"

	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/validation"
)

const planWeeks = 4

// CheckShape reports cardinality problems the schema does not pin: a plan
// must have four weeks and each day one meal per category.
func CheckShape(plan *models.MealPlan) []validation.Issue {
	var issues []validation.Issue

	if len(plan.Weeks) != planWeeks {
		issues = append(issues, validation.Issue{
			Path:    "weeks",
			Code:    "cardinality",
			Message: fmt.Sprintf("expected %d weeks, received %d", planWeeks, len(plan.Weeks)),
		})
	}

	for wi, week := range plan.Weeks {
		for di, day := range week.Days {
			path := fmt.Sprintf("weeks[%d].days[%d].meals", wi, di)
			if len(day.Meals) != len(models.MealCategories) {
				issues = append(issues, validation.Issue{
					Path:    path,
					Code:    "cardinality",
					Message: fmt.Sprintf("expected %d meals, received %d", len(models.MealCategories), len(day.Meals)),
				})
				continue
			}
			seen := make(map[string]bool, len(day.Meals))
			for _, meal := range day.Meals {
				seen[meal.Category] = true
			}
			for _, category := range models.MealCategories {
				if !seen[category] {
					issues = append(issues, validation.Issue{
						Path:    path,
						Code:    "missing_category",
						Message: "missing " + category,
					})
				}
			}
		}
	}
	return issues
}
