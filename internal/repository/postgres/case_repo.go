package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wyngai/internal/domain"
	"wyngai/internal/port"
)

type caseRepo struct {
	db *sqlx.DB
}

// NewCaseRepo creates a new PostgreSQL-backed CaseRepository.
func NewCaseRepo(db *sqlx.DB) port.CaseRepository {
	return &caseRepo{db: db}
}

// caseRow mirrors the analysis_cases table. The benefits context and the
// full result are JSONB columns, marshaled at the repository boundary.
type caseRow struct {
	ID          uuid.UUID      `db:"id"`
	Status      domain.CaseStatus `db:"status"`
	Benefits    []byte         `db:"benefits"`
	Confidence  float64        `db:"confidence"`
	Error       string         `db:"error"`
	Attempts    int            `db:"attempts"`
	Result      []byte         `db:"result"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	CompletedAt *time.Time     `db:"completed_at"`
}

func (row *caseRow) toDomain() (*domain.AnalysisCase, error) {
	c := &domain.AnalysisCase{
		ID:          row.ID,
		Status:      row.Status,
		Confidence:  row.Confidence,
		Error:       row.Error,
		Attempts:    row.Attempts,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		CompletedAt: row.CompletedAt,
	}
	if len(row.Benefits) > 0 && string(row.Benefits) != "null" {
		var b domain.BenefitsContext
		if err := json.Unmarshal(row.Benefits, &b); err != nil {
			return nil, fmt.Errorf("unmarshaling benefits: %w", err)
		}
		c.Benefits = &b
	}
	return c, nil
}

func (r *caseRepo) Create(ctx context.Context, c *domain.AnalysisCase) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	benefits, err := json.Marshal(c.Benefits)
	if err != nil {
		return fmt.Errorf("marshaling benefits: %w", err)
	}

	query := `INSERT INTO analysis_cases
		(id, status, benefits, confidence, error, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Status, benefits, c.Confidence, c.Error, c.Attempts,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("caseRepo.Create: %w", err)
	}
	return nil
}

func (r *caseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisCase, error) {
	var row caseRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM analysis_cases WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("caseRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

// ClaimQueued moves up to limit queued cases to processing and returns
// them. SKIP LOCKED keeps concurrent workers from claiming the same case.
func (r *caseRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.AnalysisCase, error) {
	query := `UPDATE analysis_cases
		SET status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id IN (
			SELECT id FROM analysis_cases
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var rows []caseRow
	err := r.db.SelectContext(ctx, &rows, query,
		domain.CaseStatusProcessing, time.Now().UTC(), domain.CaseStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("caseRepo.ClaimQueued: %w", err)
	}

	cases := make([]domain.AnalysisCase, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("caseRepo.ClaimQueued: %w", err)
		}
		cases = append(cases, *c)
	}
	return cases, nil
}

func (r *caseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus, caseErr string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE analysis_cases SET status = $1, error = $2, updated_at = $3 WHERE id = $4",
		status, caseErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("caseRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *caseRepo) UpdateResult(ctx context.Context, id uuid.UUID, result *domain.CaseResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling case result: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE analysis_cases
		 SET status = $1, result = $2, confidence = $3, error = '',
		     updated_at = $4, completed_at = $5
		 WHERE id = $6`,
		domain.CaseStatusCompleted, payload, result.Confidence, now, now, id)
	if err != nil {
		return fmt.Errorf("caseRepo.UpdateResult: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *caseRepo) GetResult(ctx context.Context, id uuid.UUID) (*domain.CaseResult, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload,
		"SELECT result FROM analysis_cases WHERE id = $1 AND result IS NOT NULL", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("caseRepo.GetResult: %w", err)
	}

	var result domain.CaseResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling case result: %w", err)
	}
	return &result, nil
}
