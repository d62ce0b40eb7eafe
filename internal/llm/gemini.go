package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	geminiProvider = "gemini"
	geminiModel    = "gemini-1.5-flash"
)

// GeminiClient calls the Google Gemini API. The underlying client is created
// lazily so a missing key surfaces on the first request instead of at startup.
type GeminiClient struct {
	modelName   string
	temperature float32
	apiKey      func() string
	opts        []option.ClientOption
	logger      *zap.Logger

	mu     sync.Mutex
	key    string
	client *genai.Client
	// clients replaced after a key rotation; requests may still hold them
	retired []*genai.Client
}

// NewGeminiClient creates a Gemini completion client
func NewGeminiClient(modelName string, temperature float64, logger *zap.Logger, opts ...option.ClientOption) *GeminiClient {
	if modelName == "" {
		modelName = geminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		modelName:   modelName,
		temperature: float32(temperature),
		apiKey:      EnvKey("GEMINI_API_KEY"),
		opts:        opts,
		logger:      logger,
	}
}

// Complete sends the prompt to Gemini asking for a JSON response
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	apiKey := c.apiKey()
	if apiKey == "" {
		return "", missingKey(geminiProvider)
	}

	client, err := c.clientFor(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamTransport, err)
	}

	model := client.GenerativeModel(c.modelName)
	model.SetTemperature(c.temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		mapped := mapGeminiError(err)
		c.logger.Error("gemini request failed", zap.Error(err))
		return "", mapped
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no content generated", ErrUpstreamFormat)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: generated content is not text", ErrUpstreamFormat)
	}
	return sb.String(), nil
}

// Close closes the current Gemini client and any replaced by key rotation
func (c *GeminiClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, client := range append(c.retired, c.client) {
		if client != nil {
			errs = append(errs, client.Close())
		}
	}
	c.client = nil
	c.retired = nil
	return errors.Join(errs...)
}

func (c *GeminiClient) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.key == apiKey {
		return c.client, nil
	}
	if c.client != nil {
		c.retired = append(c.retired, c.client)
	}

	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	c.key = apiKey
	return client, nil
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "API request failed"
		}
		return &UpstreamError{Provider: geminiProvider, StatusCode: apiErr.Code, Message: message}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamTransport, err)
}
