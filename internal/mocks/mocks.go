package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/models"
	"github.com/mealwise/backend/internal/types"
)

// MockCompletionClient is a mock implementation of llm.CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockPlanGenerator is a mock implementation of service.PlanGenerator
type MockPlanGenerator struct {
	mock.Mock
}

func (m *MockPlanGenerator) Generate(ctx context.Context, req models.PlanRequest) (*models.GeneratedPlan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedPlan), args.Error(1)
}

// MockIdentityProvider is a mock implementation of identity.Provider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*types.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, accessToken string) (*types.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

// MockSessionVerifier is a mock implementation of identity.SessionVerifier
type MockSessionVerifier struct {
	mock.Mock
}

func (m *MockSessionVerifier) Verify(ctx context.Context, accessToken string) (*types.SessionInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SessionInfo), args.Error(1)
}

// MockLedger is a mock implementation of audit.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Record(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedger) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GenerationRecord), args.Error(1)
}
