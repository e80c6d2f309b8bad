package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"wyngai/internal/domain"
)

// MockFileRefRepo is a mock implementation of port.FileRefRepository.
type MockFileRefRepo struct {
	mock.Mock
}

func (m *MockFileRefRepo) Create(ctx context.Context, ref *domain.FileRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockFileRefRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FileRef, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileRef), args.Error(1)
}

func (m *MockFileRefRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileRef), args.Error(1)
}

func (m *MockFileRefRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
