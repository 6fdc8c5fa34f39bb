package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"repair-backend/internal/alarm"
	"repair-backend/internal/models"
)

func newCaseFixture() (*memStore, *CaseService, *recordingObserver) {
	store := newMemStore(clock)
	svc := NewCaseService(store, store, alarm.NewEvaluator(clock))
	obs := &recordingObserver{}
	svc.AddObserver(obs)
	return store, svc, obs
}

func TestCaseService_CreateCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.CreateCaseRequest
		wantErr error
	}{
		{"valid", models.CreateCaseRequest{CaseNumber: " R-1 ", CustomerName: "Mette", Priority: "four_days"}, nil},
		{"missing number", models.CreateCaseRequest{CustomerName: "Mette", Priority: "asap"}, ErrInvalidCase},
		{"missing customer", models.CreateCaseRequest{CaseNumber: "R-2", Priority: "asap"}, ErrInvalidCase},
		{"bad priority", models.CreateCaseRequest{CaseNumber: "R-3", CustomerName: "Mette", Priority: "urgent"}, ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, svc, obs := newCaseFixture()

			c, err := svc.CreateCase(context.Background(), &tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, obs.changes)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "R-1", c.CaseNumber)
			require.Equal(t, models.StatusCreated, c.Status)
			require.Len(t, obs.changes, 1)
		})
	}
}

func TestCaseService_ChangeStatus(t *testing.T) {
	t.Parallel()

	store, svc, obs := newCaseFixture()
	c := store.add(&models.Case{Status: models.StatusCreated, Priority: models.PriorityFourDays, CreatedAt: daysAgo(6)},
		&models.StatusChange{Status: models.StatusCreated, CreatedAt: daysAgo(6)})
	ctx := context.Background()

	before, err := svc.GetCase(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, before.InAlarm)
	require.Equal(t, "Sagen er 6 hverdage gammel og ikke påbegyndt (max 4 dage)", before.AlarmMessage)

	after, err := svc.ChangeStatus(ctx, c.ID, &models.UpdateStatusRequest{Status: "in_progress"})
	require.NoError(t, err)
	require.False(t, after.InAlarm)
	require.Empty(t, after.AlarmMessage)
	require.Len(t, after.History, 2)
	require.Equal(t, models.StatusInProgress, after.History[0].Status)
	require.Len(t, obs.changes, 1)

	_, err = svc.ChangeStatus(ctx, c.ID, &models.UpdateStatusRequest{Status: "lost"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.ChangeStatus(ctx, 999, &models.UpdateStatusRequest{Status: "completed"})
	require.ErrorIs(t, err, ErrCaseNotFound)
	require.Len(t, obs.changes, 1)
}

func TestCaseService_ListCasesDecorated(t *testing.T) {
	t.Parallel()

	store, svc, _ := newCaseFixture()
	late := store.add(&models.Case{Status: models.StatusReadyForPickup, Priority: models.PriorityASAP, CreatedAt: daysAgo(30)},
		&models.StatusChange{Status: models.StatusReadyForPickup, CreatedAt: daysAgo(16)})
	store.add(&models.Case{Status: models.StatusReadyForPickup, Priority: models.PriorityASAP, CreatedAt: daysAgo(30)},
		&models.StatusChange{Status: models.StatusReadyForPickup, CreatedAt: daysAgo(2)})

	list, err := svc.ListCases(context.Background(), models.CaseFilter{Status: models.StatusReadyForPickup})
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.Equal(t, late.ID, list[0].ID)
	require.True(t, list[0].InAlarm)
	require.Equal(t, "Sagen har afventet afhentning i 16 hverdage (max 14 dage)", list[0].AlarmMessage)
	require.False(t, list[1].InAlarm)
	require.Empty(t, list[1].AlarmMessage)
}

func TestCaseService_GetHistoryNotFound(t *testing.T) {
	t.Parallel()

	_, svc, _ := newCaseFixture()
	_, err := svc.GetHistory(context.Background(), 42)
	require.ErrorIs(t, err, ErrCaseNotFound)
}
