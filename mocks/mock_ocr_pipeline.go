package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
	"wyngai/internal/port"
)

// MockOCRPipeline is a mock implementation of service.OCRPipeline.
type MockOCRPipeline struct {
	mock.Mock
}

func (m *MockOCRPipeline) Process(ctx context.Context, input port.ExtractInput) *domain.OCRResult {
	args := m.Called(ctx, input)
	return args.Get(0).(*domain.OCRResult)
}
