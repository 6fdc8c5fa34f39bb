package services

import (
	"context"
	"fmt"
	"strings"

	"repair-backend/internal/alarm"
	"repair-backend/internal/logger"
	"repair-backend/internal/models"
)

type CaseService struct {
	Cases     CaseStore
	History   HistoryStore
	Evaluator *alarm.Evaluator
	observers []StatusObserver
}

func NewCaseService(cases CaseStore, history HistoryStore, evaluator *alarm.Evaluator) *CaseService {
	if evaluator == nil {
		evaluator = alarm.NewEvaluator(nil)
	}
	return &CaseService{
		Cases:     cases,
		History:   history,
		Evaluator: evaluator,
	}
}

// AddObserver registers o to be told about status changes
func (s *CaseService) AddObserver(o StatusObserver) {
	s.observers = append(s.observers, o)
}

func (s *CaseService) CreateCase(ctx context.Context, req *models.CreateCaseRequest) (*models.Case, error) {
	if strings.TrimSpace(req.CaseNumber) == "" {
		return nil, fmt.Errorf("%w: case number is required", ErrInvalidCase)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidCase)
	}

	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	c := &models.Case{
		CaseNumber:    strings.TrimSpace(req.CaseNumber),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Description:   req.Description,
		Status:        models.StatusCreated,
		Priority:      priority,
	}
	if err := s.Cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	s.notify(ctx, &models.StatusChange{CaseID: c.ID, Status: c.Status, CreatedAt: c.CreatedAt})
	return c, nil
}

// GetCase returns the case with its history and current alarm state
func (s *CaseService) GetCase(ctx context.Context, id int) (*models.CaseDetail, error) {
	c, err := s.Cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.History.ListByCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if history == nil {
		history = []*models.StatusChange{}
	}

	return &models.CaseDetail{
		CaseWithAlarm: s.decorate(c, history),
		History:       history,
	}, nil
}

// GetHistory returns the status history of a case, newest first
func (s *CaseService) GetHistory(ctx context.Context, id int) ([]*models.StatusChange, error) {
	if _, err := s.Cases.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.History.ListByCase(ctx, id)
}

// ListCases returns cases decorated with their alarm indicator
func (s *CaseService) ListCases(ctx context.Context, f models.CaseFilter) ([]*models.CaseWithAlarm, error) {
	cases, err := s.Cases.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	ids := make([]int, len(cases))
	for i, c := range cases {
		ids[i] = c.ID
	}
	histories, err := s.History.ListByCases(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}

	// one instant for the whole page
	eval := s.Evaluator.At(s.Evaluator.Now())
	result := make([]*models.CaseWithAlarm, 0, len(cases))
	for _, c := range cases {
		res := eval.Evaluate(c, histories[c.ID])
		result = append(result, &models.CaseWithAlarm{
			Case:         c,
			InAlarm:      res.InAlarm,
			AlarmMessage: res.Message,
		})
	}
	return result, nil
}

// ChangeStatus moves a case to a new status and records the transition
func (s *CaseService) ChangeStatus(ctx context.Context, id int, req *models.UpdateStatusRequest) (*models.CaseDetail, error) {
	status, err := models.ParseCaseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	change, err := s.Cases.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logger.InfoKV(ctx, "Case status changed", "case_id", id, "status", status)

	s.notify(ctx, change)
	return s.GetCase(ctx, id)
}

func (s *CaseService) decorate(c *models.Case, history []*models.StatusChange) models.CaseWithAlarm {
	res := s.Evaluator.Evaluate(c, history)
	return models.CaseWithAlarm{
		Case:         c,
		InAlarm:      res.InAlarm,
		AlarmMessage: res.Message,
	}
}

func (s *CaseService) notify(ctx context.Context, change *models.StatusChange) {
	for _, o := range s.observers {
		o.StatusChanged(ctx, change)
	}
}
