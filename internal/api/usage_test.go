package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/mocks"
	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/ratelimit"
	"github.com/mealwise/backend/internal/testhelpers"
)

func newUsageRouter(ledger audit.Ledger) *gin.Engine {
	router := gin.New()
	NewUsageHandler(ledger, zap.NewNop()).RegisterRoutes(router.Group("/api"))
	return router
}

func getUsage(router http.Handler, query string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/usage"+query, nil))
	return rr
}

func TestListUsageLimits(t *testing.T) {
	ledger := new(mocks.MockLedger)
	ledger.On("Recent", mock.Anything, mock.Anything).Return([]models.GenerationRecord{}, nil)
	router := newUsageRouter(ledger)

	assert.Equal(t, http.StatusOK, getUsage(router, "").Code)
	assert.Equal(t, http.StatusOK, getUsage(router, "?limit=5").Code)
	assert.Equal(t, http.StatusOK, getUsage(router, "?limit=500").Code)
	assert.Equal(t, http.StatusBadRequest, getUsage(router, "?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, getUsage(router, "?limit=abc").Code)

	ledger.AssertCalled(t, "Recent", mock.Anything, 20)
	ledger.AssertCalled(t, "Recent", mock.Anything, 5)
	ledger.AssertCalled(t, "Recent", mock.Anything, 100)
	ledger.AssertNumberOfCalls(t, "Recent", 3)
}

func TestListUsageLedgerError(t *testing.T) {
	ledger := new(mocks.MockLedger)
	ledger.On("Recent", mock.Anything, 20).Return(nil, errors.New("no such table"))

	rr := getUsage(newUsageRouter(ledger), "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListUsageFromSQLite(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	require.NoError(t, db.AutoMigrate(&models.GenerationRecord{}))
	ledger := audit.NewGormLedger(db)

	planner := new(mocks.MockPlanGenerator)
	planner.On("Generate", mock.Anything, mock.Anything).Return(&models.GeneratedPlan{}, nil)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(10, time.Minute), 5)
	router := gin.New()
	group := router.Group("/api")
	NewPlanHandler(planner, limiter, ledger, "groq", zap.NewNop()).RegisterRoutes(group)
	NewUsageHandler(ledger, zap.NewNop()).RegisterRoutes(group)

	postPlan(router, dairyRequestBody)

	rr := getUsage(router, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Attempts []models.GenerationRecord `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Attempts, 1)
	assert.Equal(t, "ok", body.Attempts[0].Outcome)
	assert.Equal(t, "groq", body.Attempts[0].Provider)
	assert.Equal(t, audit.HashClientKey("127.0.0.1"), body.Attempts[0].ClientKey)
}

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", NewHealthHandler(testhelpers.SetupSQLite(t), nil).HealthCheck)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)
}
