package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/mealwise/backend/config"
	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/mocks"
	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDependencies() Dependencies {
	planner := new(mocks.MockPlanGenerator)
	planner.On("Generate", mock.Anything, mock.Anything).Return(&models.GeneratedPlan{}, nil)
	return Dependencies{
		Config:  &config.Config{Environment: config.Test, AllowedOrigins: []string{"http://localhost:3000"}, CompletionProvider: "deepseek"},
		Logger:  zap.NewNop(),
		Planner: planner,
		Limiter: ratelimit.NewLimiter(ratelimit.NewMemoryStore(1000, time.Minute), 5),
	}
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRoutes(t *testing.T) {
	router := New(testDependencies())

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rr.Body.String())

	body := `{"age":30,"weight":70,"allergies":["dairy"],"preferences":["vegetarian"],"monthYear":"2025-04"}`
	rr = serve(router, httptest.NewRequest(http.MethodPost, "/api/generate-plan", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "4", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestOptionalRoutesAreNotRegistered(t *testing.T) {
	router := New(testDependencies())

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUsageRequiresSessionWhenIdentityEnabled(t *testing.T) {
	deps := testDependencies()
	deps.Ledger = audit.NopLedger{}
	deps.Identity = new(mocks.MockIdentityProvider)
	deps.Verifier = new(mocks.MockSessionVerifier)
	router := New(deps)

	rr := serve(router, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := New(testDependencies())

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := serve(router, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
