package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// fixedNow is Wednesday 2024-01-17 12:00 in the service zone.
var fixedNow = time.Date(2024, time.January, 17, 12, 0, 0, 0, timeutil.Zone)

func testEvaluator() *Evaluator {
	return NewEvaluator(func() time.Time { return fixedNow })
}

// businessDaysAgo returns a timestamp n business days before fixedNow.
func businessDaysAgo(n int) time.Time {
	return timeutil.AddBusinessDays(fixedNow, -n)
}

func change(status models.CaseStatus, at time.Time) *models.StatusChange {
	return &models.StatusChange{Status: status, CreatedAt: at}
}

func TestEvaluate_FourDayPriority(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusCreated,
		Priority:  models.PriorityFourDays,
		CreatedAt: businessDaysAgo(5),
	}

	require.True(t, e.IsCaseInAlarm(c, nil))
	msg := e.AlarmMessage(c, nil)
	require.Contains(t, msg, "5")
	require.Contains(t, msg, "max 4 dage")
	require.Equal(t, "Sagen er 5 hverdage gammel og ikke påbegyndt (max 4 dage)", msg)

	c.CreatedAt = businessDaysAgo(4)
	require.False(t, e.IsCaseInAlarm(c, nil))
	require.Empty(t, e.AlarmMessage(c, nil))
}

func TestEvaluate_FourDayPriorityIgnoresHistory(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	// A fresh "created" history row must not restart the not-started clock.
	c := &models.Case{
		Status:    models.StatusCreated,
		Priority:  models.PriorityFourDays,
		CreatedAt: businessDaysAgo(6),
	}
	history := []*models.StatusChange{change(models.StatusCreated, fixedNow)}

	res := e.Evaluate(c, history)
	require.True(t, res.InAlarm)
	require.Equal(t, RuleNotStarted, res.Rule)
	require.Equal(t, 6, res.BusinessDays)
	require.True(t, c.CreatedAt.Equal(res.Reference))
}

func TestEvaluate_CreatedWithoutFourDayPriorityNeverAlarms(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	for _, p := range []models.Priority{models.PriorityFreeDiagnosis, models.PriorityFirstPriority, models.PriorityASAP} {
		c := &models.Case{
			Status:    models.StatusCreated,
			Priority:  p,
			CreatedAt: fixedNow.AddDate(-1, 0, 0),
		}
		require.False(t, e.IsCaseInAlarm(c, nil), "priority %s", p)
		require.Empty(t, e.AlarmMessage(c, nil))
	}
}

func TestEvaluate_InProgressBoundary(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusInProgress,
		Priority:  models.PriorityASAP,
		CreatedAt: businessDaysAgo(30),
	}

	breached := []*models.StatusChange{
		change(models.StatusCreated, businessDaysAgo(30)),
		change(models.StatusInProgress, businessDaysAgo(2)),
	}
	require.True(t, e.IsCaseInAlarm(c, breached))
	require.Equal(t, "Sagen har været påbegyndt i 2 hverdage (max 1 dag)", e.AlarmMessage(c, breached))

	atLimit := []*models.StatusChange{
		change(models.StatusCreated, businessDaysAgo(30)),
		change(models.StatusInProgress, businessDaysAgo(1)),
	}
	require.False(t, e.IsCaseInAlarm(c, atLimit))
	require.Empty(t, e.AlarmMessage(c, atLimit))
}

func TestEvaluate_UsesMostRecentMatchingEntry(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusInProgress,
		Priority:  models.PriorityFirstPriority,
		CreatedAt: businessDaysAgo(20),
	}

	// Re-entered in_progress; the older entry is listed last on purpose.
	history := []*models.StatusChange{
		change(models.StatusInProgress, fixedNow.Add(-time.Hour)),
		change(models.StatusWaitingParts, businessDaysAgo(5)),
		change(models.StatusInProgress, businessDaysAgo(10)),
	}
	res := e.Evaluate(c, history)
	require.False(t, res.InAlarm)
	require.Equal(t, 0, res.BusinessDays)
	require.True(t, history[0].CreatedAt.Equal(res.Reference))
}

func TestEvaluate_OtherStatusEntriesIgnored(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusReadyForPickup,
		Priority:  models.PriorityFreeDiagnosis,
		CreatedAt: businessDaysAgo(40),
	}
	history := []*models.StatusChange{
		change(models.StatusInProgress, businessDaysAgo(1)),
		change(models.StatusReadyForPickup, businessDaysAgo(15)),
	}
	require.True(t, e.IsCaseInAlarm(c, history))
	require.Equal(t, "Sagen har afventet afhentning i 15 hverdage (max 14 dage)", e.AlarmMessage(c, history))
}

func TestEvaluate_WaitingCustomerFallsBackToCreation(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusWaitingCustomer,
		Priority:  models.PriorityFreeDiagnosis,
		CreatedAt: businessDaysAgo(14),
	}
	require.False(t, e.IsCaseInAlarm(c, nil))
	require.False(t, e.IsCaseInAlarm(c, []*models.StatusChange{}))

	c.CreatedAt = businessDaysAgo(15)
	require.True(t, e.IsCaseInAlarm(c, nil))
	require.Equal(t, "Sagen har afventet kunde i 15 hverdage (max 14 dage)", e.AlarmMessage(c, nil))
}

func TestEvaluate_UnmonitoredStatusesNeverAlarm(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	ancient := fixedNow.AddDate(-5, 0, 0)
	unmonitored := []models.CaseStatus{
		models.StatusCompleted,
		models.StatusOfferCreated,
		models.StatusOfferAccepted,
		models.StatusOfferRejected,
		models.StatusWaitingParts,
		models.StatusPreparingDelivery,
		models.CaseStatus("archived"),
		models.CaseStatus(""),
	}
	for _, s := range unmonitored {
		for _, p := range models.Priorities {
			c := &models.Case{Status: s, Priority: p, CreatedAt: ancient}
			history := []*models.StatusChange{change(s, ancient)}
			require.False(t, e.IsCaseInAlarm(c, history), "status %q", s)
			require.Empty(t, e.AlarmMessage(c, history))
		}
	}
}

func TestEvaluate_NilInputs(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	require.False(t, e.IsCaseInAlarm(nil, nil))
	require.Empty(t, e.AlarmMessage(nil, nil))

	c := &models.Case{Status: models.StatusInProgress, CreatedAt: businessDaysAgo(3)}
	require.True(t, e.IsCaseInAlarm(c, []*models.StatusChange{nil, nil}))
}

func TestEvaluate_FutureReferenceIsNotAlarm(t *testing.T) {
	t.Parallel()
	e := testEvaluator()

	c := &models.Case{
		Status:    models.StatusInProgress,
		CreatedAt: fixedNow.AddDate(0, 0, 10),
	}
	res := e.Evaluate(c, nil)
	require.False(t, res.InAlarm)
	require.Negative(t, res.BusinessDays)
}

func TestEvaluate_WeekendDoesNotCount(t *testing.T) {
	t.Parallel()

	// Friday afternoon to Monday morning is a single business day.
	monday := time.Date(2024, time.January, 22, 9, 0, 0, 0, timeutil.Zone)
	friday := time.Date(2024, time.January, 19, 15, 0, 0, 0, timeutil.Zone)
	e := NewEvaluator(func() time.Time { return monday })

	c := &models.Case{Status: models.StatusInProgress, CreatedAt: friday}
	require.False(t, e.IsCaseInAlarm(c, nil))
}

func TestRuleFor(t *testing.T) {
	t.Parallel()

	r, ok := RuleFor(models.StatusCreated, models.PriorityFourDays)
	require.True(t, ok)
	require.Equal(t, RuleNotStarted, r.Kind)

	_, ok = RuleFor(models.StatusCreated, models.PriorityASAP)
	require.False(t, ok)

	for _, s := range []models.CaseStatus{models.StatusInProgress, models.StatusReadyForPickup, models.StatusWaitingCustomer} {
		r, ok := RuleFor(s, models.PriorityFreeDiagnosis)
		require.True(t, ok)
		require.Equal(t, s, r.Status)
	}

	require.ElementsMatch(t, []models.CaseStatus{
		models.StatusCreated,
		models.StatusInProgress,
		models.StatusReadyForPickup,
		models.StatusWaitingCustomer,
	}, MonitoredStatuses())
}

func TestFormatMessage_Fallback(t *testing.T) {
	t.Parallel()
	require.Equal(t, UnknownAlarmMessage, formatMessage(Rule{Kind: "custom"}, 3))
}
