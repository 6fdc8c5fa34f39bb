package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
)

// AlarmRepository serves the aggregate alarm query. The rule table is compiled
// into the WHERE clause once, when the repository is built.
type AlarmRepository struct {
	DB        *pgxpool.Pool
	predicate alarm.Predicate
	query     string
}

func NewAlarmRepository(db *pgxpool.Pool, rules []alarm.Rule) *AlarmRepository {
	p := alarm.CompilePredicate(rules)
	return &AlarmRepository{
		DB:        db,
		predicate: p,
		query: `SELECT ` + caseColumns + `, h.last_entered_at
         FROM repair_cases c
         LEFT JOIN LATERAL (
             SELECT MAX(sh.created_at) AS last_entered_at
             FROM case_status_history sh
             WHERE sh.case_id = c.id AND sh.status = c.status
         ) h ON TRUE
         WHERE ` + p.SQL + `
         ORDER BY c.created_at ASC, c.id ASC`,
	}
}

// ListAlarmed returns every case in alarm at now, with business days counted
// in zone, in a single query.
func (r *AlarmRepository) ListAlarmed(ctx context.Context, now time.Time, zone string) ([]*models.CaseSnapshot, error) {
	rows, err := r.DB.Query(ctx, r.query, r.predicate.QueryArgs(now, zone)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.CaseSnapshot
	for rows.Next() {
		var (
			c                models.Case
			status, priority string
			lastEntered      *time.Time
		)
		if err := rows.Scan(&c.ID, &c.CaseNumber, &c.CustomerName, &c.CustomerPhone, &c.Description,
			&status, &priority, &c.CreatedAt, &c.UpdatedAt, &lastEntered); err != nil {
			return nil, err
		}
		c.Status = models.CaseStatus(status)
		c.Priority = models.Priority(priority)

		s := &models.CaseSnapshot{Case: &c}
		if lastEntered != nil {
			s.LastEnteredAt = *lastEntered
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// ListCandidates returns the cases whose current status is one of statuses,
// oldest first. It feeds the per-case evaluation path.
func (r *AlarmRepository) ListCandidates(ctx context.Context, statuses []models.CaseStatus) ([]*models.Case, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT `+caseColumns+` FROM repair_cases c
         WHERE c.status = ANY($1)
         ORDER BY c.created_at ASC, c.id ASC`, raw)
	if err != nil {
		return nil, err
	}
	return collectCases(rows)
}
