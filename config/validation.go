package config

import (
	"fmt"
	"strings"
)

var (
	supportedProviders = map[string]bool{
		"deepseek": true,
		"openai":   true,
		"groq":     true,
		"gemini":   true,
	}

	supportedStores = map[string]bool{
		"memory": true,
		"redis":  true,
	}

	supportedDrivers = map[string]bool{
		"":         true,
		"postgres": true,
		"sqlite":   true,
	}
)

// ValidateConfig checks the configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.ServerPort == "" {
		errors = append(errors, "SERVER_PORT must not be empty")
	}

	if !supportedProviders[cfg.CompletionProvider] {
		errors = append(errors, fmt.Sprintf("unknown COMPLETION_PROVIDER %q", cfg.CompletionProvider))
	}
	if cfg.CompletionTimeout <= 0 {
		errors = append(errors, "COMPLETION_TIMEOUT must be positive")
	}
	if cfg.CompletionTemperature < 0 || cfg.CompletionTemperature > 2 {
		errors = append(errors, "COMPLETION_TEMPERATURE must be between 0 and 2")
	}

	if !supportedStores[cfg.RateLimitStore] {
		errors = append(errors, fmt.Sprintf("unknown RATE_LIMIT_STORE %q", cfg.RateLimitStore))
	}
	if cfg.RateLimitStore == "redis" && cfg.RedisURL == "" && cfg.RedisHost == "" {
		errors = append(errors, "REDIS_URL or REDIS_HOST is required when RATE_LIMIT_STORE=redis")
	}
	if cfg.RateLimitMax <= 0 {
		errors = append(errors, "RATE_LIMIT_MAX must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, "RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.RateLimitMaxKeys <= 0 {
		errors = append(errors, "RATE_LIMIT_MAX_KEYS must be positive")
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey == "" {
		errors = append(errors, "SUPABASE_ANON_KEY is required when SUPABASE_URL is set")
	}

	if !supportedDrivers[cfg.DBDriver] {
		errors = append(errors, fmt.Sprintf("unknown DB_DRIVER %q", cfg.DBDriver))
	}
	if cfg.DBDriver != "" && cfg.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when DB_DRIVER is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
