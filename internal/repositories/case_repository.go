package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repair-backend/internal/models"
)

const caseColumns = `c.id, c.case_number, c.customer_name, c.customer_phone, c.description,
        c.status, c.priority, c.created_at, c.updated_at`

type CaseRepository struct {
	DB *pgxpool.Pool
}

func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{DB: db}
}

// Create inserts the case and its initial status history row in one transaction.
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create case: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO repair_cases(case_number, customer_name, customer_phone, description, status, priority)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at, updated_at`,
		c.CaseNumber, c.CustomerName, c.CustomerPhone, c.Description, string(c.Status), string(c.Priority),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO case_status_history(case_id, status, created_at) VALUES($1, $2, $3)`,
		c.ID, string(c.Status), c.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert initial status: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *CaseRepository) Get(ctx context.Context, id int) (*models.Case, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+caseColumns+` FROM repair_cases c WHERE c.id = $1`, id)

	c, err := scanCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrCaseNotFound
	}
	return c, err
}

// List returns cases newest first, narrowed by the filter.
func (r *CaseRepository) List(ctx context.Context, f models.CaseFilter) ([]*models.Case, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, string(f.Priority))
		conds = append(conds, fmt.Sprintf("c.priority = $%d", len(args)))
	}

	query := `SELECT ` + caseColumns + ` FROM repair_cases c`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectCases(rows)
}

// UpdateStatus moves the case to status and records the transition.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id int, status models.CaseStatus) (*models.StatusChange, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update status: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var changedAt time.Time
	err = tx.QueryRow(ctx,
		`UPDATE repair_cases SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		string(status), id,
	).Scan(&changedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update case status: %w", err)
	}

	change := &models.StatusChange{CaseID: id, Status: status, CreatedAt: changedAt}
	if err := tx.QueryRow(ctx,
		`INSERT INTO case_status_history(case_id, status, created_at) VALUES($1, $2, $3) RETURNING id`,
		id, string(status), changedAt,
	).Scan(&change.ID); err != nil {
		return nil, fmt.Errorf("insert status change: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return change, nil
}

func scanCase(row pgx.Row) (*models.Case, error) {
	var (
		c                models.Case
		status, priority string
	)
	err := row.Scan(&c.ID, &c.CaseNumber, &c.CustomerName, &c.CustomerPhone, &c.Description,
		&status, &priority, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.CaseStatus(status)
	c.Priority = models.Priority(priority)
	return &c, nil
}

func collectCases(rows pgx.Rows) ([]*models.Case, error) {
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
