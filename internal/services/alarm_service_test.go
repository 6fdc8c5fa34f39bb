package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
	"repair-backend/internal/timeutil"
)

// Wednesday
var fixedNow = time.Date(2024, 1, 17, 12, 0, 0, 0, timeutil.Zone)

func clock() time.Time { return fixedNow }

func daysAgo(n int) time.Time {
	return timeutil.AddBusinessDays(fixedNow, -n)
}

func newAlarmFixture() (*memStore, *AlarmService) {
	store := newMemStore(clock)
	svc := NewAlarmService(store, store, alarm.NewEvaluator(clock))
	return store, svc
}

func seedPopulation(store *memStore, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		created := fixedNow.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)
		var history []*models.StatusChange
		for j := rng.Intn(4); j > 0; j-- {
			at := created.Add(time.Duration(rng.Int63n(int64(fixedNow.Sub(created)) + 1)))
			history = append(history, &models.StatusChange{
				Status:    models.CaseStatuses[rng.Intn(len(models.CaseStatuses))],
				CreatedAt: at,
			})
		}
		store.add(&models.Case{
			CaseNumber: "R-" + string(rune('A'+i%26)),
			Status:     models.CaseStatuses[rng.Intn(len(models.CaseStatuses))],
			Priority:   models.Priorities[rng.Intn(len(models.Priorities))],
			CreatedAt:  created,
		}, history...)
	}
}

func alarmIDs(alarms []*models.CaseAlarm) []int {
	ids := make([]int, len(alarms))
	for i, a := range alarms {
		ids[i] = a.Case.ID
	}
	return ids
}

func TestAlarmService_PathsAgree(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	seedPopulation(store, 500, 7)
	svc.SetWorkers(4)

	ctx := context.Background()
	fast, err := svc.ListAggregate(ctx, fixedNow)
	require.NoError(t, err)
	slow, err := svc.ListPerCase(ctx, fixedNow)
	require.NoError(t, err)

	require.NotEmpty(t, slow)
	require.Equal(t, alarmIDs(slow), alarmIDs(fast))
	for i := range fast {
		require.Equal(t, slow[i].Message, fast[i].Message)
		require.Equal(t, slow[i].BusinessDays, fast[i].BusinessDays)
	}
}

func TestAlarmService_FallsBackWhenAggregateFails(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	stuck := store.add(&models.Case{Status: models.StatusInProgress, Priority: models.PriorityASAP, CreatedAt: daysAgo(10)},
		&models.StatusChange{Status: models.StatusInProgress, CreatedAt: daysAgo(3)})
	store.aggregateErr = errBoom

	alarms, err := svc.Compute(context.Background())
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Equal(t, stuck.ID, alarms[0].Case.ID)
	require.Equal(t, "Sagen har været påbegyndt i 3 hverdage (max 1 dag)", alarms[0].Message)
	require.Equal(t, 1, store.aggregateHits)
}

func TestAlarmService_PerCaseErrorIsReturned(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	store.add(&models.Case{Status: models.StatusInProgress, Priority: models.PriorityASAP, CreatedAt: daysAgo(10)})
	store.aggregateErr = errBoom
	store.historyErr = errBoom

	_, err := svc.Compute(context.Background())
	require.ErrorIs(t, err, errBoom)
}

func TestAlarmService_FastPathDisabled(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	svc.SetFastPath(false)
	store.add(&models.Case{Status: models.StatusReadyForPickup, Priority: models.PriorityASAP, CreatedAt: daysAgo(20)})

	alarms, err := svc.Compute(context.Background())
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	require.Zero(t, store.aggregateHits)
}

func TestAlarmService_CachesUntilStatusChange(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	c := &memCache{}
	svc.SetCache(c)
	store.add(&models.Case{Status: models.StatusCreated, Priority: models.PriorityFourDays, CreatedAt: daysAgo(5)})

	ctx := context.Background()
	first, err := svc.ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.aggregateHits)

	n, err := svc.CountAlarms(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	second, err := svc.ListAlarms(ctx)
	require.NoError(t, err)
	require.Equal(t, alarmIDs(first), alarmIDs(second))
	require.Equal(t, 1, store.aggregateHits)

	svc.StatusChanged(ctx, &models.StatusChange{CaseID: 1, Status: models.StatusInProgress})
	require.Equal(t, 1, c.invalidated)

	_, err = svc.ListAlarms(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.aggregateHits)
}

func TestAlarmService_Summary(t *testing.T) {
	t.Parallel()

	store, svc := newAlarmFixture()
	store.add(&models.Case{Status: models.StatusCreated, Priority: models.PriorityFourDays, CreatedAt: daysAgo(5)})
	store.add(&models.Case{Status: models.StatusWaitingCustomer, Priority: models.PriorityASAP, CreatedAt: daysAgo(15)})
	store.add(&models.Case{Status: models.StatusWaitingCustomer, Priority: models.PriorityASAP, CreatedAt: daysAgo(20)})
	store.add(&models.Case{Status: models.StatusCompleted, Priority: models.PriorityASAP, CreatedAt: daysAgo(60)})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Count)
	require.Equal(t, 1, summary.ByRule[string(alarm.RuleNotStarted)])
	require.Equal(t, 2, summary.ByRule[string(alarm.RuleAwaitingCustomer)])
	require.Equal(t, fixedNow, summary.GeneratedAt)
}

func TestSortAlarms(t *testing.T) {
	t.Parallel()

	alarms := []*models.CaseAlarm{
		{Case: &models.Case{ID: 3}, BusinessDays: 5, MaxBusinessDays: 4},
		{Case: &models.Case{ID: 1}, BusinessDays: 20, MaxBusinessDays: 14},
		{Case: &models.Case{ID: 2}, BusinessDays: 2, MaxBusinessDays: 1},
		{Case: &models.Case{ID: 4}, BusinessDays: 4, MaxBusinessDays: 1},
	}
	SortAlarms(alarms)
	require.Equal(t, []int{1, 4, 2, 3}, alarmIDs(alarms))
}
