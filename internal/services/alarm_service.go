package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"repair-backend/internal/alarm"
	"repair-backend/internal/logger"
	"repair-backend/internal/metrics"
	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// Evaluation path labels
const (
	PathAggregate = "aggregate"
	PathPerCase   = "per_case"
)

const defaultWorkers = 8

// AlarmService lists the cases currently breaching their status SLA. It runs
// the aggregate query first and falls back to per-case evaluation when that fails.
type AlarmService struct {
	Alarms    AlarmStore
	History   HistoryStore
	Evaluator *alarm.Evaluator
	cache     AlarmCache
	fastPath  bool
	workers   int
}

func NewAlarmService(alarms AlarmStore, history HistoryStore, evaluator *alarm.Evaluator) *AlarmService {
	if evaluator == nil {
		evaluator = alarm.NewEvaluator(nil)
	}
	return &AlarmService{
		Alarms:    alarms,
		History:   history,
		Evaluator: evaluator,
		fastPath:  true,
		workers:   defaultWorkers,
	}
}

// SetCache enables caching of computed alarm lists
func (s *AlarmService) SetCache(c AlarmCache) {
	s.cache = c
}

// SetFastPath toggles the aggregate query
func (s *AlarmService) SetFastPath(enabled bool) {
	s.fastPath = enabled
}

// SetWorkers bounds the concurrent history fetches of the per-case path
func (s *AlarmService) SetWorkers(n int) {
	if n <= 0 {
		n = defaultWorkers
	}
	s.workers = n
}

// ListAlarms returns every case in alarm, the most overdue first.
func (s *AlarmService) ListAlarms(ctx context.Context) ([]*models.CaseAlarm, error) {
	if s.cache != nil {
		if data, ok := s.cache.GetAlarms(ctx); ok {
			var cached []*models.CaseAlarm
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.AlarmCacheLookups.WithLabelValues("hit").Inc()
				return cached, nil
			}
		}
		metrics.AlarmCacheLookups.WithLabelValues("miss").Inc()
	}

	alarms, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(alarms); err == nil {
			s.cache.SetAlarms(ctx, data, len(alarms))
		}
	}
	return alarms, nil
}

// CountAlarms returns the number of cases in alarm.
func (s *AlarmService) CountAlarms(ctx context.Context) (int, error) {
	if s.cache != nil {
		if n, ok := s.cache.GetCount(ctx); ok {
			metrics.AlarmCacheLookups.WithLabelValues("hit").Inc()
			return n, nil
		}
	}
	alarms, err := s.ListAlarms(ctx)
	if err != nil {
		return 0, err
	}
	return len(alarms), nil
}

// Summary returns the alarm count broken down by rule.
func (s *AlarmService) Summary(ctx context.Context) (*models.AlarmSummary, error) {
	alarms, err := s.ListAlarms(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(alarms, s.Evaluator.Now()), nil
}

// Compute evaluates the alarm list bypassing the cache.
func (s *AlarmService) Compute(ctx context.Context) ([]*models.CaseAlarm, error) {
	now := s.Evaluator.Now()

	if s.fastPath {
		alarms, err := s.ListAggregate(ctx, now)
		if err == nil {
			return alarms, nil
		}
		metrics.AlarmFastPathFailures.Inc()
		logger.WarnKV(ctx, "Aggregate alarm query failed, falling back to per-case evaluation", "error", err)
	}
	return s.ListPerCase(ctx, now)
}

// ListAggregate runs the single aggregate query and renders its rows.
func (s *AlarmService) ListAggregate(ctx context.Context, now time.Time) ([]*models.CaseAlarm, error) {
	start := time.Now()
	snapshots, err := s.Alarms.ListAlarmed(ctx, now, timeutil.Zone.String())
	if err != nil {
		return nil, fmt.Errorf("aggregate alarm query: %w", err)
	}

	eval := s.Evaluator.At(now)
	alarms := make([]*models.CaseAlarm, 0, len(snapshots))
	for _, snap := range snapshots {
		res := eval.EvaluateEntered(snap.Case, snap.LastEnteredAt)
		if !res.InAlarm {
			logger.WarnKV(ctx, "Aggregate query flagged a case the evaluator does not", "case_id", snap.Case.ID)
			continue
		}
		alarms = append(alarms, toCaseAlarm(snap.Case, res))
	}

	s.observe(PathAggregate, start, alarms)
	return alarms, nil
}

// ListPerCase loads candidate cases and evaluates each against its own history.
func (s *AlarmService) ListPerCase(ctx context.Context, now time.Time) ([]*models.CaseAlarm, error) {
	start := time.Now()
	candidates, err := s.Alarms.ListCandidates(ctx, alarm.MonitoredStatuses())
	if err != nil {
		return nil, fmt.Errorf("list alarm candidates: %w", err)
	}

	eval := s.Evaluator.At(now)
	results := make([]*models.CaseAlarm, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, c := range candidates {
		g.Go(func() error {
			history, err := s.History.ListByCase(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("load history of case %d: %w", c.ID, err)
			}
			if res := eval.Evaluate(c, history); res.InAlarm {
				results[i] = toCaseAlarm(c, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	alarms := make([]*models.CaseAlarm, 0, len(results))
	for _, a := range results {
		if a != nil {
			alarms = append(alarms, a)
		}
	}

	s.observe(PathPerCase, start, alarms)
	return alarms, nil
}

// StatusChanged drops cached alarm lists after a transition.
func (s *AlarmService) StatusChanged(ctx context.Context, _ *models.StatusChange) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *AlarmService) observe(path string, start time.Time, alarms []*models.CaseAlarm) {
	SortAlarms(alarms)
	metrics.AlarmEvaluations.WithLabelValues(path).Inc()
	metrics.AlarmEvaluationDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	byRule := countByRule(alarms)
	for _, r := range alarm.Rules {
		metrics.CasesInAlarm.WithLabelValues(string(r.Kind)).Set(float64(byRule[string(r.Kind)]))
	}
}

// SortAlarms orders alarms by how far past their threshold they are, then by case ID.
func SortAlarms(alarms []*models.CaseAlarm) {
	sort.SliceStable(alarms, func(i, j int) bool {
		oi := alarms[i].BusinessDays - alarms[i].MaxBusinessDays
		oj := alarms[j].BusinessDays - alarms[j].MaxBusinessDays
		if oi != oj {
			return oi > oj
		}
		return alarms[i].Case.ID < alarms[j].Case.ID
	})
}

// Summarize counts alarms per rule.
func Summarize(alarms []*models.CaseAlarm, at time.Time) *models.AlarmSummary {
	return &models.AlarmSummary{
		Count:       len(alarms),
		ByRule:      countByRule(alarms),
		GeneratedAt: at,
	}
}

func countByRule(alarms []*models.CaseAlarm) map[string]int {
	counts := make(map[string]int, len(alarm.Rules))
	for _, a := range alarms {
		counts[a.Rule]++
	}
	return counts
}

func toCaseAlarm(c *models.Case, res alarm.Result) *models.CaseAlarm {
	return &models.CaseAlarm{
		Case:            c,
		Rule:            string(res.Rule),
		Message:         res.Message,
		BusinessDays:    res.BusinessDays,
		MaxBusinessDays: res.MaxBusinessDays,
		Since:           res.Reference,
	}
}
