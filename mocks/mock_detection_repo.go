package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
)

// MockDetectionRepo is a mock implementation of port.DetectionRepository.
type MockDetectionRepo struct {
	mock.Mock
}

func (m *MockDetectionRepo) Insert(ctx context.Context, caseID uuid.UUID, detections []domain.Detection) error {
	args := m.Called(ctx, caseID, detections)
	return args.Error(0)
}

func (m *MockDetectionRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Detection), args.Error(1)
}
