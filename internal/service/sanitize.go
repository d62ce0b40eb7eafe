package service

import "strings"

// CleanCompletion strips markdown code fences the model may wrap its JSON in.
// CleanCompletion(CleanCompletion(s)) == CleanCompletion(s) for every s.
func CleanCompletion(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
