package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"repair-backend/internal/models"
)

type CaseStatusRepository struct {
	DB *pgxpool.Pool
}

func NewCaseStatusRepository(db *pgxpool.Pool) *CaseStatusRepository {
	return &CaseStatusRepository{DB: db}
}

func (r *CaseStatusRepository) Create(ctx context.Context, h *models.StatusChange) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO case_status_history(case_id, status)
         VALUES($1, $2)
         RETURNING id, created_at`,
		h.CaseID, string(h.Status),
	).Scan(&h.ID, &h.CreatedAt)
}

// ListByCase returns the status history of a case, newest first.
func (r *CaseStatusRepository) ListByCase(ctx context.Context, caseID int) ([]*models.StatusChange, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, case_id, status, created_at
         FROM case_status_history WHERE case_id = $1 ORDER BY created_at DESC, id DESC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.StatusChange
	for rows.Next() {
		var (
			h      models.StatusChange
			status string
		)
		if err := rows.Scan(&h.ID, &h.CaseID, &status, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Status = models.CaseStatus(status)
		history = append(history, &h)
	}
	return history, rows.Err()
}

// ListByCases returns the status history of several cases in one query,
// keyed by case ID, newest first within each case.
func (r *CaseStatusRepository) ListByCases(ctx context.Context, caseIDs []int) (map[int][]*models.StatusChange, error) {
	result := make(map[int][]*models.StatusChange, len(caseIDs))
	if len(caseIDs) == 0 {
		return result, nil
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, case_id, status, created_at
         FROM case_status_history WHERE case_id = ANY($1)
         ORDER BY case_id, created_at DESC, id DESC`, caseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h      models.StatusChange
			status string
		)
		if err := rows.Scan(&h.ID, &h.CaseID, &status, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Status = models.CaseStatus(status)
		result[h.CaseID] = append(result[h.CaseID], &h)
	}
	return result, rows.Err()
}
