package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wyngai/internal/domain"
	"wyngai/internal/port"
)

type detectionRepo struct {
	db *sqlx.DB
}

// NewDetectionRepo creates a new PostgreSQL-backed DetectionRepository.
func NewDetectionRepo(db *sqlx.DB) port.DetectionRepository {
	return &detectionRepo{db: db}
}

type detectionRow struct {
	ID          uuid.UUID `db:"id"`
	CaseID      uuid.UUID `db:"case_id"`
	RuleKey     string    `db:"rule_key"`
	Severity    string    `db:"severity"`
	Explanation string    `db:"explanation"`
	Evidence    []byte    `db:"evidence"`
	Citations   []byte    `db:"citations"`
	Position    int       `db:"position"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *detectionRepo) Insert(ctx context.Context, caseID uuid.UUID, detections []domain.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("detectionRepo.Insert begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM detections WHERE case_id = $1", caseID); err != nil {
		return fmt.Errorf("detectionRepo.Insert clear: %w", err)
	}

	query := `INSERT INTO detections
		(id, case_id, rule_key, severity, explanation, evidence, citations, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now().UTC()
	for i := range detections {
		d := &detections[i]
		evidence, err := json.Marshal(d.Evidence)
		if err != nil {
			return fmt.Errorf("marshaling evidence: %w", err)
		}
		citations, err := json.Marshal(d.Citations)
		if err != nil {
			return fmt.Errorf("marshaling citations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.New(), caseID, d.RuleKey, d.Severity, d.Explanation,
			evidence, citations, i, now); err != nil {
			return fmt.Errorf("detectionRepo.Insert %s: %w", d.RuleKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("detectionRepo.Insert commit: %w", err)
	}
	return nil
}

func (r *detectionRepo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error) {
	var rows []detectionRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM detections WHERE case_id = $1 ORDER BY position", caseID)
	if err != nil {
		return nil, fmt.Errorf("detectionRepo.ListByCase: %w", err)
	}

	detections := make([]domain.Detection, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		d := domain.Detection{
			RuleKey:     row.RuleKey,
			Severity:    domain.Severity(row.Severity),
			Explanation: row.Explanation,
		}
		if err := json.Unmarshal(row.Evidence, &d.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshaling evidence: %w", err)
		}
		if len(row.Citations) > 0 && string(row.Citations) != "null" {
			if err := json.Unmarshal(row.Citations, &d.Citations); err != nil {
				return nil, fmt.Errorf("unmarshaling citations: %w", err)
			}
		}
		detections = append(detections, d)
	}
	return detections, nil
}
