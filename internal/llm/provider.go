package llm

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mealwise/backend/config"
)

// New builds the completion client selected by the configuration
func New(cfg *config.Config, logger *zap.Logger) (CompletionClient, error) {
	var p Provider
	switch cfg.CompletionProvider {
	case "deepseek":
		p = DeepSeek
	case "openai":
		p = OpenAI
	case "groq":
		p = Groq
	case "gemini":
		return NewGeminiClient(cfg.CompletionModel, cfg.CompletionTemperature, logger), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}

	return NewChatClient(p,
		WithAPIURL(cfg.CompletionAPIURL),
		WithModel(cfg.CompletionModel),
		WithTemperature(cfg.CompletionTemperature),
		WithHTTPClient(&http.Client{Timeout: cfg.CompletionTimeout}),
		WithLogger(logger),
	), nil
}
