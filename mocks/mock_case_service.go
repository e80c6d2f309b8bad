package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
	"wyngai/internal/service"
)

// MockCaseService is a mock implementation of service.CaseService.
type MockCaseService struct {
	mock.Mock
}

func (m *MockCaseService) Create(ctx context.Context, benefits *domain.BenefitsContext) (*domain.AnalysisCase, error) {
	args := m.Called(ctx, benefits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCase), args.Error(1)
}

func (m *MockCaseService) GetByID(ctx context.Context, caseID uuid.UUID) (*domain.AnalysisCase, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisCase), args.Error(1)
}

func (m *MockCaseService) AttachFile(ctx context.Context, input service.FileUploadInput) (*domain.FileRef, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileRef), args.Error(1)
}

func (m *MockCaseService) ListFiles(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileRef), args.Error(1)
}

func (m *MockCaseService) Submit(ctx context.Context, caseID uuid.UUID) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}

func (m *MockCaseService) GetResult(ctx context.Context, caseID uuid.UUID) (*domain.CaseResult, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaseResult), args.Error(1)
}

func (m *MockCaseService) GetDetections(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Detection), args.Error(1)
}

func (m *MockCaseService) GetFileURL(ctx context.Context, caseID, fileID uuid.UUID) (string, error) {
	args := m.Called(ctx, caseID, fileID)
	return args.String(0), args.Error(1)
}
