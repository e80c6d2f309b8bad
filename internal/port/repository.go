package port

import (
	"context"

	"github.com/google/uuid"

	"wyngai/internal/domain"
)

// FileRefRepository defines the contract for uploaded-file metadata persistence.
type FileRefRepository interface {
	Create(ctx context.Context, ref *domain.FileRef) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FileRef, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus) error
}

// CaseRepository defines the contract for analysis case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.AnalysisCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisCase, error)
	// ClaimQueued atomically moves up to limit queued cases to processing
	// and returns them, so concurrent workers never claim the same case.
	ClaimQueued(ctx context.Context, limit int) ([]domain.AnalysisCase, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus, caseErr string) error
	UpdateResult(ctx context.Context, id uuid.UUID, result *domain.CaseResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*domain.CaseResult, error)
}

// DetectionRepository defines the contract for persisting detections per case.
type DetectionRepository interface {
	Insert(ctx context.Context, caseID uuid.UUID, detections []domain.Detection) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error)
}
