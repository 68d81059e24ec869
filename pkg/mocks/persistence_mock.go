package mocks

import (
	"context"

	"github.com/dukex/stepledger/pkg/models"
	"github.com/dukex/stepledger/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockStepResultRepository is a mock implementation of persistence.StepResultRepository interface.
type MockStepResultRepository struct {
	mock.Mock
}

func (m *MockStepResultRepository) Save(ctx context.Context, record *models.StepRecord) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}

func (m *MockStepResultRepository) Get(ctx context.Context, runID, stepName string) (*models.StepRecord, error) {
	args := m.Called(ctx, runID, stepName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.StepRecord), args.Error(1)
}

func (m *MockStepResultRepository) ListByRun(ctx context.Context, runID string) ([]*models.StepRecord, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.StepRecord), args.Error(1)
}

func (m *MockStepResultRepository) ListRuns(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStepResultRepository) Delete(ctx context.Context, runID, stepName string) error {
	args := m.Called(ctx, runID, stepName)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Repository *MockStepResultRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{Repository: &MockStepResultRepository{}}
}

func (m *MockPersistence) StepResultRepository() persistence.StepResultRepository {
	return m.Repository
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
