package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
)

// MockCaseRepo is a mock implementation of port.CaseRepository.
type MockCaseRepo struct {
	mock.Mock
}

func (m *MockCaseRepo) Create(ctx context.Context, c *domain.AnalysisCase) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCase), args.Error(1)
}

func (m *MockCaseRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.AnalysisCase, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisCase), args.Error(1)
}

func (m *MockCaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus, caseErr string) error {
	args := m.Called(ctx, id, status, caseErr)
	return args.Error(0)
}

func (m *MockCaseRepo) UpdateResult(ctx context.Context, id uuid.UUID, result *domain.CaseResult) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *MockCaseRepo) GetResult(ctx context.Context, id uuid.UUID) (*domain.CaseResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseResult), args.Error(1)
}
