// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"

	"github.com/mealwise/backend/config"
)

// New returns a development logger outside production and CI, and a JSON
// production logger otherwise
func New(env config.Environment) (*zap.Logger, error) {
	switch env {
	case config.Development, config.Test:
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
