package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticKey(key string) func() string {
	return func() string { return key }
}

func TestChatClientComplete(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"month_year\":\"2025-04\"}"}}]}`)
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("test-key")))
	content, err := client.Complete(context.Background(), "plan please")
	require.NoError(t, err)

	assert.Equal(t, `{"month_year":"2025-04"}`, content)
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "plan please", got.Messages[0].Content)
}

func TestChatClientOptions(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{}"}}]}`)
	}))
	defer ts.Close()

	client := NewChatClient(OpenAI,
		WithAPIURL(ts.URL),
		WithModel("gpt-4"),
		WithTemperature(0.7),
		WithAPIKey(staticKey("k")),
	)
	_, err := client.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
}

func TestChatClientMissingAPIKey(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("")))
	_, err := client.Complete(context.Background(), "x")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Contains(t, upstream.Message, "deepseek API key is not configured")
	assert.False(t, called)
}

func TestChatClientUpstreamErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"Insufficient Balance","type":"unknown_error"}}`)
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("k")))
	_, err := client.Complete(context.Background(), "x")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusPaymentRequired, upstream.StatusCode)
	assert.Equal(t, "Insufficient Balance", upstream.Message)
}

func TestChatClientUpstreamErrorWithoutMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("k")))
	_, err := client.Complete(context.Background(), "x")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "API request failed", upstream.Message)
}

func TestChatClientNonJSONResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("k")))
	_, err := client.Complete(context.Background(), "x")

	assert.ErrorIs(t, err, ErrUpstreamFormat)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestChatClientNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL), WithAPIKey(staticKey("k")))
	_, err := client.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamFormat)
}

func TestChatClientTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek,
		WithAPIURL(ts.URL),
		WithAPIKey(staticKey("k")),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)
	_, err := client.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamTransport)
}

func TestEnvKeyReadsAtCallTime(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("MEALWISE_TEST_KEY", "")
	key := EnvKey("MEALWISE_TEST_KEY")
	assert.Empty(t, key())

	t.Setenv("MEALWISE_TEST_KEY", "later")
	assert.Equal(t, "later", key())
}

func TestEnvKeyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

	t.Setenv("MEALWISE_FILE_KEY", "")
	t.Setenv("MEALWISE_FILE_KEY_FILE", path)
	assert.Equal(t, "from-file", EnvKey("MEALWISE_FILE_KEY")())
}

func TestEnvKeyFromSecretsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY_FILE", "")

	key := EnvKey("DEEPSEEK_API_KEY")
	assert.Empty(t, key())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "deepseek_api_key"), []byte("from-secret\n"), 0o600))
	assert.Equal(t, "from-secret", key())
}

func TestChatClientUsesSecretsDirKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY_FILE", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deepseek_api_key"), []byte("secret-key"), 0o600))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer ts.Close()

	client := NewChatClient(DeepSeek, WithAPIURL(ts.URL))
	content, err := client.Complete(context.Background(), "plan")
	require.NoError(t, err)
	assert.Equal(t, "{}", content)
}
