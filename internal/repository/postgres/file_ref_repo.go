package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wyngai/internal/domain"
	"wyngai/internal/port"
)

type fileRefRepo struct {
	db *sqlx.DB
}

// NewFileRefRepo creates a new PostgreSQL-backed FileRefRepository.
func NewFileRefRepo(db *sqlx.DB) port.FileRefRepository {
	return &fileRefRepo{db: db}
}

func (r *fileRefRepo) Create(ctx context.Context, ref *domain.FileRef) error {
	ref.CreatedAt = time.Now().UTC()

	query := `INSERT INTO file_refs
		(id, case_id, file_name, original_name, file_type, file_size,
		 s3_bucket, s3_key, content_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		ref.ID, ref.CaseID, ref.FileName, ref.OriginalName, ref.FileType,
		ref.FileSize, ref.S3Bucket, ref.S3Key, ref.ContentType, ref.Status,
		ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("fileRefRepo.Create: %w", err)
	}
	return nil
}

func (r *fileRefRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FileRef, error) {
	var ref domain.FileRef
	err := r.db.GetContext(ctx, &ref, "SELECT * FROM file_refs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fileRefRepo.GetByID: %w", err)
	}
	return &ref, nil
}

func (r *fileRefRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error) {
	var refs []domain.FileRef
	err := r.db.SelectContext(ctx, &refs,
		`SELECT * FROM file_refs
		 WHERE case_id = $1 AND status != $2
		 ORDER BY created_at`,
		caseID, domain.FileStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("fileRefRepo.ListByCase: %w", err)
	}
	return refs, nil
}

func (r *fileRefRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE file_refs SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("fileRefRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
