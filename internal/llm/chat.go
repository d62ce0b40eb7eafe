package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider describes an OpenAI-compatible chat completions endpoint
type Provider struct {
	Name   string
	APIURL string
	Model  string
	KeyEnv string
}

var (
	DeepSeek = Provider{
		Name:   "deepseek",
		APIURL: "https://api.deepseek.com/v1/chat/completions",
		Model:  "deepseek-chat",
		KeyEnv: "DEEPSEEK_API_KEY",
	}
	OpenAI = Provider{
		Name:   "openai",
		APIURL: "https://api.openai.com/v1/chat/completions",
		Model:  "gpt-4o-mini",
		KeyEnv: "OPENAI_API_KEY",
	}
	Groq = Provider{
		Name:   "groq",
		APIURL: "https://api.groq.com/openai/v1/chat/completions",
		Model:  "llama-3.3-70b-versatile",
		KeyEnv: "GROQ_API_KEY",
	}
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatClient calls an OpenAI-compatible chat completions API
type ChatClient struct {
	provider    string
	apiURL      string
	model       string
	temperature float64
	apiKey      func() string
	httpClient  *http.Client
	logger      *zap.Logger
}

// ChatOption configures a ChatClient
type ChatOption func(*ChatClient)

func WithAPIURL(url string) ChatOption {
	return func(c *ChatClient) {
		if url != "" {
			c.apiURL = url
		}
	}
}

func WithModel(model string) ChatOption {
	return func(c *ChatClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithTemperature(t float64) ChatOption {
	return func(c *ChatClient) { c.temperature = t }
}

// WithAPIKey overrides where the API key is read from
func WithAPIKey(key func() string) ChatOption {
	return func(c *ChatClient) { c.apiKey = key }
}

func WithHTTPClient(client *http.Client) ChatOption {
	return func(c *ChatClient) { c.httpClient = client }
}

func WithLogger(logger *zap.Logger) ChatOption {
	return func(c *ChatClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChatClient creates a client for the given provider
func NewChatClient(p Provider, opts ...ChatOption) *ChatClient {
	c := &ChatClient{
		provider:    p.Name,
		apiURL:      p.APIURL,
		model:       p.Model,
		temperature: 0.3,
		apiKey:      EnvKey(p.KeyEnv),
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends prompt as a single user message and returns the message content
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	apiKey := c.apiKey()
	if apiKey == "" {
		return "", missingKey(c.provider)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrUpstreamTransport, err)
	}

	c.logger.Debug("completion service responded",
		zap.String("provider", c.provider),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		c.logger.Error("completion service returned non-JSON response",
			zap.String("provider", c.provider),
			zap.Int("status", resp.StatusCode),
			zap.String("content_type", ct),
			zap.String("body", truncate(string(body), 200)),
		)
		return "", ErrUpstreamFormat
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := "API request failed"
		if result.Error != nil && result.Error.Message != "" {
			message = result.Error.Message
		}
		c.logger.Error("completion service request failed",
			zap.String("provider", c.provider),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return "", &UpstreamError{Provider: c.provider, StatusCode: resp.StatusCode, Message: message}
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUpstreamFormat)
	}

	return result.Choices[0].Message.Content, nil
}
