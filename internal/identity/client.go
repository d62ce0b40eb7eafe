// Package identity forwards account operations to a Supabase GoTrue server
// and verifies the access tokens it issues.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/types"
)

// ErrUnavailable wraps transport failures talking to the identity provider
var ErrUnavailable = errors.New("identity provider unavailable")

// Error is a non-2xx answer from the identity provider
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Provider is the set of account operations served by the auth endpoints
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*types.User, error)
	SignIn(ctx context.Context, email, password string) (*types.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*types.User, error)
}

// Client calls the GoTrue REST API
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the GoTrue server under baseURL
func NewClient(baseURL, anonKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account
func (c *Client) SignUp(ctx context.Context, email, password string) (*types.User, error) {
	var resp struct {
		types.User
		Nested *types.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	// Servers with auto-confirm answer with a session wrapping the user
	if resp.Nested != nil {
		return resp.Nested, nil
	}
	return &resp.User, nil
}

// SignIn exchanges an email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	var session types.Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session the access token belongs to
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// GetUser returns the account the access token belongs to
func (c *Client) GetUser(ctx context.Context, accessToken string) (*types.User, error) {
	var user types.User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity provider request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	return nil
}

// errorMessage picks the human readable field out of a GoTrue error body
func errorMessage(data []byte, status int) string {
	var body struct {
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return http.StatusText(status)
}
