package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/identity"
	"github.com/mealwise/backend/internal/mocks"
	"github.com/mealwise/backend/internal/types"
	"github.com/mealwise/backend/internal/validation"
)

func newAuthRouter(provider identity.Provider, verifier identity.SessionVerifier) *gin.Engine {
	router := gin.New()
	NewAuthHandler(provider, verifier, zap.NewNop()).RegisterRoutes(router.Group("/api"))
	return router
}

func doJSON(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSignUp(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("SignUp", mock.Anything, "cook@example.com", "secret123").
		Return(&types.User{ID: "u-1", Email: "cook@example.com"}, nil)

	rr := doJSON(newAuthRouter(provider, nil), http.MethodPost, "/api/auth/signup",
		`{"email":"cook@example.com","password":"secret123"}`, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		User types.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "u-1", body.User.ID)
	provider.AssertExpectations(t)
}

func TestSignInValidation(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	router := newAuthRouter(provider, nil)

	tests := []struct {
		name  string
		body  string
		codes map[string]string
	}{
		{"bad email and short password", `{"email":"nope","password":"123"}`, map[string]string{"email": "email", "password": "min"}},
		{"missing fields", `{}`, map[string]string{"email": "required", "password": "required"}},
		{"malformed", `{"email":`, map[string]string{"": "invalid_json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(router, http.MethodPost, "/api/auth/signin", tt.body, "")

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			var body struct {
				Error  string             `json:"error"`
				Issues []validation.Issue `json:"issues"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "Validation failed", body.Error)

			got := map[string]string{}
			for _, issue := range body.Issues {
				got[issue.Path] = issue.Code
			}
			assert.Equal(t, tt.codes, got)
		})
	}
	provider.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignInForwardsProviderResult(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("SignIn", mock.Anything, "cook@example.com", "secret123").
		Return(&types.Session{AccessToken: "at", TokenType: "bearer", ExpiresIn: 3600}, nil).Once()
	provider.On("SignIn", mock.Anything, "cook@example.com", "wrongpass").
		Return(nil, &identity.Error{StatusCode: http.StatusBadRequest, Message: "Invalid login credentials"}).Once()
	provider.On("SignIn", mock.Anything, "down@example.com", "secret123").
		Return(nil, fmt.Errorf("%w: connection refused", identity.ErrUnavailable)).Once()
	provider.On("SignIn", mock.Anything, "flaky@example.com", "secret123").
		Return(nil, &identity.Error{StatusCode: http.StatusInternalServerError, Message: "database error"}).Once()
	router := newAuthRouter(provider, nil)

	rr := doJSON(router, http.MethodPost, "/api/auth/signin", `{"email":"cook@example.com","password":"secret123"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"access_token":"at"`)

	rr = doJSON(router, http.MethodPost, "/api/auth/signin", `{"email":"cook@example.com","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid login credentials"}`, rr.Body.String())

	rr = doJSON(router, http.MethodPost, "/api/auth/signin", `{"email":"down@example.com","password":"secret123"}`, "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"identity provider unavailable"}`, rr.Body.String())

	rr = doJSON(router, http.MethodPost, "/api/auth/signin", `{"email":"flaky@example.com","password":"secret123"}`, "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSignOut(t *testing.T) {
	provider := new(mocks.MockIdentityProvider)
	provider.On("SignOut", mock.Anything, "user-token").Return(nil)
	router := newAuthRouter(provider, nil)

	rr := doJSON(router, http.MethodPost, "/api/auth/signout", "", "user-token")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(router, http.MethodPost, "/api/auth/signout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	provider.AssertNumberOfCalls(t, "SignOut", 1)
}

func TestSession(t *testing.T) {
	expires := time.Date(2025, time.April, 1, 13, 0, 0, 0, time.UTC)
	verifier := new(mocks.MockSessionVerifier)
	verifier.On("Verify", mock.Anything, "good").
		Return(&types.SessionInfo{UserID: "u-1", Email: "cook@example.com", ExpiresAt: expires}, nil)
	verifier.On("Verify", mock.Anything, "expired").Return(nil, identity.ErrInvalidSession)
	router := newAuthRouter(new(mocks.MockIdentityProvider), verifier)

	rr := doJSON(router, http.MethodGet, "/api/auth/session", "", "good")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":"u-1","email":"cook@example.com","expires_at":"2025-04-01T13:00:00Z"}`, rr.Body.String())

	rr = doJSON(router, http.MethodGet, "/api/auth/session", "", "expired")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
