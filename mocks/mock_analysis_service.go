package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
	"wyngai/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeCase(ctx context.Context, c *domain.AnalysisCase, maxRetries int) {
	m.Called(ctx, c, maxRetries)
}

func (m *MockAnalysisService) AnalyzeFiles(ctx context.Context, files []service.NamedFile, benefits *domain.BenefitsContext) *domain.CaseResult {
	args := m.Called(ctx, files, benefits)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.CaseResult)
}
