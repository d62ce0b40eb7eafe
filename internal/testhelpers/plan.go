package testhelpers

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mealwise/backend/internal/models"
)

// SamplePlan builds a complete four week plan for monthYear with one meal per
// category on every day
func SamplePlan(monthYear string) models.MealPlan {
	start, err := time.Parse("2006-01", monthYear)
	if err != nil {
		start = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	}

	meals := map[string]struct {
		name        string
		ingredients []string
	}{
		models.CategoryBreakfast: {"Oat Porridge", []string{"rolled oats", "almond milk", "banana"}},
		models.CategoryLunch:     {"Lentil Salad", []string{"green lentils", "cucumber", "olive oil"}},
		models.CategoryDinner:    {"Vegetable Curry", []string{"chickpeas", "spinach", "coconut milk"}},
	}

	plan := models.MealPlan{MonthYear: &monthYear}
	day := start
	for w := 1; w <= 4; w++ {
		week := models.Week{WeekNumber: w}
		for d := 0; d < 7; d++ {
			entry := models.Day{
				DayName: day.Weekday().String(),
				Date:    day.Format("2006-01-02"),
			}
			for _, category := range models.MealCategories {
				m := meals[category]
				entry.Meals = append(entry.Meals, models.Meal{
					Category:    category,
					Name:        m.name,
					Ingredients: append([]string(nil), m.ingredients...),
					Nutrition: models.Nutrition{
						Calories: 450,
						Protein:  18,
						Carbs:    60,
						Fats:     12,
					},
					Recipe: models.Recipe{
						PrepTime:   "10 mins",
						CookTime:   "20 mins",
						Difficulty: "easy",
						Steps: []string{
							"Prepare all of the ingredients.",
							fmt.Sprintf("Cook the %s until done.", m.name),
						},
					},
				})
			}
			week.Days = append(week.Days, entry)
			day = day.AddDate(0, 0, 1)
		}
		plan.Weeks = append(plan.Weeks, week)
	}
	return plan
}

// MustJSON marshals v or fails the test
func MustJSON(t testing.TB, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return string(data)
}

// PlanMap returns the sample plan as a generic JSON document so tests can
// remove or alter individual fields
func PlanMap(t testing.TB, monthYear string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(MustJSON(t, SamplePlan(monthYear))), &doc); err != nil {
		t.Fatalf("failed to decode sample plan: %v", err)
	}
	return doc
}

// FirstMeal returns the first meal of the first day of a plan document
func FirstMeal(doc map[string]any) map[string]any {
	weeks := doc["weeks"].([]any)
	days := weeks[0].(map[string]any)["days"].([]any)
	meals := days[0].(map[string]any)["meals"].([]any)
	return meals[0].(map[string]any)
}
