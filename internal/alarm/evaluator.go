package alarm

import (
	"fmt"
	"time"

	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// Result is the outcome of evaluating one case.
type Result struct {
	InAlarm         bool      `json:"in_alarm"`
	Rule            RuleKind  `json:"rule,omitempty"`
	BusinessDays    int       `json:"business_days"`
	MaxBusinessDays int       `json:"max_business_days,omitempty"`
	Reference       time.Time `json:"reference"`
	Message         string    `json:"message,omitempty"`
}

// Evaluator applies the rule table. It holds no mutable state and is safe
// for concurrent use.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator returns an evaluator reading the current time from now.
// A nil clock falls back to timeutil.Now.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = timeutil.Now
	}
	return &Evaluator{now: now}
}

var defaultEvaluator = NewEvaluator(nil)

// Now returns the evaluator's current time.
func (e *Evaluator) Now() time.Time {
	return e.now()
}

// At returns an evaluator pinned to now, so a batch of cases is judged
// against a single instant.
func (e *Evaluator) At(now time.Time) *Evaluator {
	return &Evaluator{now: func() time.Time { return now }}
}

// IsCaseInAlarm reports whether c currently breaches its status SLA, using the wall clock.
func IsCaseInAlarm(c *models.Case, history []*models.StatusChange) bool {
	return defaultEvaluator.IsCaseInAlarm(c, history)
}

// AlarmMessage returns the breach text for c, or "" when it is not in alarm.
func AlarmMessage(c *models.Case, history []*models.StatusChange) string {
	return defaultEvaluator.AlarmMessage(c, history)
}

// IsCaseInAlarm reports whether c currently breaches its status SLA.
func (e *Evaluator) IsCaseInAlarm(c *models.Case, history []*models.StatusChange) bool {
	return e.Evaluate(c, history).InAlarm
}

// AlarmMessage returns the breach text for c, or "" when it is not in alarm.
func (e *Evaluator) AlarmMessage(c *models.Case, history []*models.StatusChange) string {
	return e.Evaluate(c, history).Message
}

// Evaluate runs the rule table against c and its status history.
func (e *Evaluator) Evaluate(c *models.Case, history []*models.StatusChange) Result {
	if c == nil {
		return Result{}
	}
	entered, _ := LastEntered(c.Status, history)
	return e.EvaluateEntered(c, entered)
}

// EvaluateEntered evaluates c when the time it last entered its current status
// is already known, as returned by the aggregate query. A zero entered time
// means the status was never recorded and the creation time is used.
func (e *Evaluator) EvaluateEntered(c *models.Case, entered time.Time) Result {
	if c == nil {
		return Result{}
	}

	rule, ok := RuleFor(c.Status, c.Priority)
	if !ok {
		return Result{Reference: referenceTime(c, Rule{}, entered)}
	}

	ref := referenceTime(c, rule, entered)
	days := timeutil.BusinessDaysBetween(ref, e.now())
	res := Result{
		Rule:            rule.Kind,
		BusinessDays:    days,
		MaxBusinessDays: rule.MaxBusinessDays,
		Reference:       ref,
	}
	if !rule.Breached(days) {
		return res
	}

	res.InAlarm = true
	res.Message = formatMessage(rule, days)
	return res
}

// LastEntered returns the most recent time the history shows a transition
// into status. The bool is false when no entry matches.
func LastEntered(status models.CaseStatus, history []*models.StatusChange) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, h := range history {
		if h == nil || h.Status != status {
			continue
		}
		if !found || h.CreatedAt.After(latest) {
			latest = h.CreatedAt
			found = true
		}
	}
	return latest, found
}

// ReferenceTime returns the timestamp the SLA clock of c runs from.
func ReferenceTime(c *models.Case, history []*models.StatusChange) time.Time {
	if c == nil {
		return time.Time{}
	}
	rule, _ := RuleFor(c.Status, c.Priority)
	entered, _ := LastEntered(c.Status, history)
	return referenceTime(c, rule, entered)
}

func referenceTime(c *models.Case, rule Rule, entered time.Time) time.Time {
	if rule.FromCreation || entered.IsZero() {
		return c.CreatedAt
	}
	return entered
}

func formatMessage(rule Rule, days int) string {
	if rule.Message == "" {
		return UnknownAlarmMessage
	}
	return fmt.Sprintf(rule.Message, days)
}
