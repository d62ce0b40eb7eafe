package models

import "time"

// PlanRequest holds the user constraints a meal plan is generated from
type PlanRequest struct {
	Age         int      `json:"age" binding:"gt=0"`
	Weight      float64  `json:"weight" binding:"gt=0"`
	Allergies   []string `json:"allergies" binding:"required,dive,min=2"`
	Preferences []string `json:"preferences" binding:"required,dive,min=2"`
	MonthYear   string   `json:"monthYear" binding:"required,yearmonth"`
}

// Meal categories
const (
	CategoryBreakfast = "breakfast"
	CategoryLunch     = "lunch"
	CategoryDinner    = "dinner"
)

// MealCategories lists the categories every day is expected to cover, in serving order
var MealCategories = []string{CategoryBreakfast, CategoryLunch, CategoryDinner}

type Nutrition struct {
	Calories float64 `json:"calories" binding:"gt=0"`
	Protein  float64 `json:"protein" binding:"gt=0"`
	Carbs    float64 `json:"carbs" binding:"gt=0"`
	Fats     float64 `json:"fats" binding:"gt=0"`
}

type Recipe struct {
	PrepTime   string   `json:"prep_time" binding:"required,minutes"`
	CookTime   string   `json:"cook_time" binding:"required,minutes"`
	Difficulty string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Steps      []string `json:"steps" binding:"required,min=1,dive,min=10"`
}

type Meal struct {
	Category    string    `json:"category" binding:"required,oneof=breakfast lunch dinner"`
	Name        string    `json:"name" binding:"required,min=3"`
	Ingredients []string  `json:"ingredients" binding:"required,dive,min=2"`
	Nutrition   Nutrition `json:"nutrition"`
	Recipe      Recipe    `json:"recipe"`
}

type Day struct {
	DayName string `json:"day_name" binding:"required"`
	Date    string `json:"date" binding:"required,datetime=2006-01-02"`
	Meals   []Meal `json:"meals" binding:"required,dive"`
}

type Week struct {
	WeekNumber int   `json:"week_number" binding:"gt=0"`
	Days       []Day `json:"days" binding:"required,dive"`
}

// MealPlan is the structure the completion service is asked to produce
type MealPlan struct {
	// MonthYear must be present but may be empty
	MonthYear *string `json:"month_year" binding:"required"`
	Weeks     []Week  `json:"weeks" binding:"required,dive"`
}

type UserMetrics struct {
	Age    int     `json:"age"`
	Weight float64 `json:"weight"`
}

type DietaryConstraints struct {
	Allergies   []string `json:"allergies"`
	Preferences []string `json:"preferences"`
}

// GeneratedPlan is a validated MealPlan plus the metadata returned to the client
type GeneratedPlan struct {
	MealPlan
	GeneratedAt        time.Time          `json:"generated_at"`
	UserMetrics        UserMetrics        `json:"user_metrics"`
	DietaryConstraints DietaryConstraints `json:"dietary_constraints"`
}
