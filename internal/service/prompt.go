package service

import (
	"fmt"
	"strings"

	"github.com/mealwise/backend/internal/models"
)

const planPromptTemplate = `Generate a complete monthly meal plan for %[1]s in STRICT JSON FORMAT.
Follow these rules absolutely:
1. Respond ONLY with valid JSON, no other text
2. Use exactly this structure:
{
  "month_year": "%[1]s",
  "weeks": [
    {
      "week_number": 1,
      "days": [
        {
          "day_name": "Monday",
          "date": "YYYY-MM-DD",
          "meals": [
            {
              "category": "breakfast",
              "name": "Meal Name",
              "ingredients": ["item1", "item2"],
              "nutrition": {
                "calories": number,
                "protein": number,
                "carbs": number,
                "fats": number
              },
              "recipe": {
                "prep_time": "X mins",
                "cook_time": "Y mins",
                "difficulty": "easy/medium/hard",
                "steps": ["step1", "step2"]
              }
            }
          ]
        }
      ]
    }
  ]
}

User Requirements:
- Age: %[2]d
- Weight: %[3]s kg
- Allergies: %[4]s
- Preferences: %[5]s

Strict Rules:
1. Validate JSON syntax before responding
2. Escape special characters
3. No markdown formatting
4. Include all 4 weeks
5. 3 meals per day (breakfast, lunch, dinner)
6. Valid dates for %[1]s
7. No allergens in ingredients
8. Complete nutrition data including fats
`

// BuildPrompt renders the instruction text sent to the completion service.
// The same request always produces the same prompt.
func BuildPrompt(req models.PlanRequest) string {
	return fmt.Sprintf(planPromptTemplate,
		req.MonthYear,
		req.Age,
		formatWeight(req.Weight),
		joinOrNone(req.Allergies),
		joinOrNone(req.Preferences),
	)
}

func formatWeight(w float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", w), "0"), ".")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
