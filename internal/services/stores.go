package services

import (
	"context"
	"time"

	"repair-backend/internal/models"
)

// Sentinel errors returned by the services; handlers map them to HTTP codes.
var (
	ErrCaseNotFound    = models.ErrCaseNotFound
	ErrInvalidStatus   = models.ErrInvalidStatus
	ErrInvalidPriority = models.ErrInvalidPriority
	ErrInvalidCase     = models.ErrInvalidCase
)

// CaseStore persists repair cases. Implemented by repositories.CaseRepository.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	Get(ctx context.Context, id int) (*models.Case, error)
	List(ctx context.Context, f models.CaseFilter) ([]*models.Case, error)
	UpdateStatus(ctx context.Context, id int, status models.CaseStatus) (*models.StatusChange, error)
}

// HistoryStore reads status history. Implemented by repositories.CaseStatusRepository.
type HistoryStore interface {
	ListByCase(ctx context.Context, caseID int) ([]*models.StatusChange, error)
	ListByCases(ctx context.Context, caseIDs []int) (map[int][]*models.StatusChange, error)
}

// AlarmStore serves both alarm fetch strategies. Implemented by repositories.AlarmRepository.
type AlarmStore interface {
	ListAlarmed(ctx context.Context, now time.Time, zone string) ([]*models.CaseSnapshot, error)
	ListCandidates(ctx context.Context, statuses []models.CaseStatus) ([]*models.Case, error)
}

// AlarmCache stores computed alarm lists. Implemented by cache.AlarmCache.
type AlarmCache interface {
	GetAlarms(ctx context.Context) ([]byte, bool)
	SetAlarms(ctx context.Context, data []byte, count int)
	GetCount(ctx context.Context) (int, bool)
	Invalidate(ctx context.Context)
}

// StatusObserver is told about every persisted status transition.
type StatusObserver interface {
	StatusChanged(ctx context.Context, change *models.StatusChange)
}
