// Package llm talks to the external completion services that write meal plans.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mealwise/backend/config"
)

// CompletionClient issues one completion request and returns the raw text.
// Implementations never retry.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrUpstreamTransport wraps network failures talking to the completion service
	ErrUpstreamTransport = errors.New("completion service request failed")
	// ErrUpstreamFormat is returned when the service answers with something other than a JSON envelope
	ErrUpstreamFormat = errors.New("API returned non-JSON response")
)

// UpstreamError is a non-2xx answer from the completion service
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func missingKey(provider string) error {
	return &UpstreamError{
		Provider:   provider,
		StatusCode: 401,
		Message:    fmt.Sprintf("%s API key is not configured", provider),
	}
}

// EnvKey returns a key source reading name, the file named by name+"_FILE",
// or the Docker secret for name, each time it is called
func EnvKey(name string) func() string {
	return func() string {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
		if path := os.Getenv(name + "_FILE"); path != "" {
			if data, err := os.ReadFile(path); err == nil {
				return strings.TrimSpace(string(data))
			}
		}
		return config.ReadSecret(name)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
