package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
)

var errBoom = errors.New("boom")

// memStore is an in-memory CaseStore, HistoryStore and AlarmStore.
type memStore struct {
	mu      sync.Mutex
	nextID  int
	cases   map[int]*models.Case
	history map[int][]*models.StatusChange
	now     func() time.Time

	aggregateErr  error
	historyErr    error
	aggregateHits int
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		cases:   make(map[int]*models.Case),
		history: make(map[int][]*models.StatusChange),
		now:     now,
	}
}

func (m *memStore) add(c *models.Case, history ...*models.StatusChange) *models.Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.cases[c.ID] = c
	for _, h := range history {
		h.CaseID = c.ID
	}
	m.history[c.ID] = history
	return c
}

func (m *memStore) Create(_ context.Context, c *models.Case) error {
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.add(c, &models.StatusChange{Status: c.Status, CreatedAt: c.CreatedAt})
	return nil
}

func (m *memStore) Get(_ context.Context, id int) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, models.ErrCaseNotFound
	}
	return c, nil
}

func (m *memStore) List(_ context.Context, f models.CaseFilter) ([]*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Case
	for _, c := range m.cases {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int, status models.CaseStatus) (*models.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, models.ErrCaseNotFound
	}
	c.Status = status
	c.UpdatedAt = m.now()
	change := &models.StatusChange{ID: len(m.history[id]) + 1, CaseID: id, Status: status, CreatedAt: c.UpdatedAt}
	m.history[id] = append([]*models.StatusChange{change}, m.history[id]...)
	return change, nil
}

func (m *memStore) ListByCase(_ context.Context, caseID int) ([]*models.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history[caseID], nil
}

func (m *memStore) ListByCases(ctx context.Context, caseIDs []int) (map[int][]*models.StatusChange, error) {
	out := make(map[int][]*models.StatusChange, len(caseIDs))
	for _, id := range caseIDs {
		h, err := m.ListByCase(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = h
	}
	return out, nil
}

// ListAlarmed mimics the aggregate query: it reduces each history to the last
// entry for the current status before judging the case.
func (m *memStore) ListAlarmed(_ context.Context, now time.Time, _ string) ([]*models.CaseSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregateHits++
	if m.aggregateErr != nil {
		return nil, m.aggregateErr
	}

	eval := alarm.NewEvaluator(nil).At(now)
	var out []*models.CaseSnapshot
	for id, c := range m.cases {
		entered, _ := alarm.LastEntered(c.Status, m.history[id])
		if eval.EvaluateEntered(c, entered).InAlarm {
			out = append(out, &models.CaseSnapshot{Case: c, LastEnteredAt: entered})
		}
	}
	return out, nil
}

func (m *memStore) ListCandidates(_ context.Context, statuses []models.CaseStatus) ([]*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[models.CaseStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*models.Case
	for _, c := range m.cases {
		if want[c.Status] {
			out = append(out, c)
		}
	}
	return out, nil
}

type memCache struct {
	mu          sync.Mutex
	data        []byte
	count       int
	set         bool
	invalidated int
}

func (c *memCache) GetAlarms(context.Context) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, c.set
}

func (c *memCache) SetAlarms(_ context.Context, data []byte, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data, c.count, c.set = data, count, true
}

func (c *memCache) GetCount(context.Context) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, c.set
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data, c.count, c.set = nil, 0, false
	c.invalidated++
}

type recordingObserver struct {
	mu      sync.Mutex
	changes []*models.StatusChange
}

func (o *recordingObserver) StatusChanged(_ context.Context, change *models.StatusChange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, change)
}
