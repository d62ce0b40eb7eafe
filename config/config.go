package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Completion service configuration. API keys are deliberately absent:
	// the completion client reads them at call time.
	CompletionProvider    string
	CompletionModel       string
	CompletionAPIURL      string
	CompletionTimeout     time.Duration
	CompletionTemperature float64
	StrictPlanShape       bool

	// Rate limiting
	RateLimitStore   string
	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitMaxKeys int

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Identity provider
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	// Usage ledger database, disabled when DBDriver is empty
	DBDriver    string
	DatabaseURL string
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// IdentityEnabled reports whether the identity provider endpoints can be served
func (c *Config) IdentityEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	l := &loader{}
	cfg := &Config{
		Environment: GetEnvironment(),

		ServerPort:     l.str("SERVER_PORT", "8080"),
		ServerHost:     l.str("SERVER_HOST", ""),
		AllowedOrigins: l.list("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		CompletionProvider:    strings.ToLower(l.str("COMPLETION_PROVIDER", "deepseek")),
		CompletionModel:       l.str("COMPLETION_MODEL", ""),
		CompletionAPIURL:      l.str("COMPLETION_API_URL", ""),
		CompletionTimeout:     l.duration("COMPLETION_TIMEOUT", 90*time.Second),
		CompletionTemperature: l.float("COMPLETION_TEMPERATURE", 0.3),
		StrictPlanShape:       l.boolean("PLAN_STRICT_SHAPE", false),

		RateLimitStore:   strings.ToLower(l.str("RATE_LIMIT_STORE", "memory")),
		RateLimitMax:     l.integer("RATE_LIMIT_MAX", 5),
		RateLimitWindow:  l.duration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMaxKeys: l.integer("RATE_LIMIT_MAX_KEYS", 1000),

		RedisHost:     l.str("REDIS_HOST", ""),
		RedisPort:     l.str("REDIS_PORT", "6379"),
		RedisPassword: ReadSecret("REDIS_PASSWORD"),
		RedisDB:       l.integer("REDIS_DB", 0),
		RedisURL:      ReadSecret("REDIS_URL"),

		SupabaseURL:       strings.TrimRight(l.str("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   ReadSecret("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: ReadSecret("SUPABASE_JWT_SECRET"),

		DBDriver:    strings.ToLower(l.str("DB_DRIVER", "")),
		DatabaseURL: ReadSecret("DATABASE_URL"),
	}

	if len(l.errs) > 0 {
		return nil, fmt.Errorf("failed to parse configuration:\n%s", strings.Join(l.errs, "\n"))
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loader reads typed values from the environment and remembers parse failures
type loader struct {
	errs []string
}

func (l *loader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (l *loader) list(key string, def []string) []string {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (l *loader) integer(key string, def int) int {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be an integer, got %q", key, raw))
		return def
	}
	return v
}

func (l *loader) float(key string, def float64) float64 {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a number, got %q", key, raw))
		return def
	}
	return v
}

func (l *loader) boolean(key string, def bool) bool {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a boolean, got %q", key, raw))
		return def
	}
	return v
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Sprintf("%s must be a duration such as 60s, got %q", key, raw))
		return def
	}
	return v
}

// ReadSecret returns the named value from the environment, falling back to a
// Docker secret file named after the lower-cased key
func ReadSecret(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, strings.ToLower(name))
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
