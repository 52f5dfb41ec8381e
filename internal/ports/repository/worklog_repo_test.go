package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timesheet.service/internal/config"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/pkg/database"
)

// newTestRepository connects to the database named by the DB_* variables.
// The tests are skipped unless DB_HOST is exported.
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping Postgres tests")
	}
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	db, err := database.NewConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func seedEmployee(t *testing.T, repo *PostgresRepository) *model.Employee {
	t.Helper()
	ctx := context.Background()
	sector, err := repo.CreateSector(ctx, "Sector "+uuid.NewString(), "PENDING")
	require.NoError(t, err)
	emp, err := repo.UpsertEmployeeByExternalID(ctx, uuid.NewString(), "Test Employee", sector.ID)
	require.NoError(t, err)
	return emp
}

func occurrencesOf(t *testing.T, repo *PostgresRepository, employeeID string, day time.Time) map[worklog.OccurrenceType]model.Occurrence {
	t.Helper()
	list, err := repo.ListOccurrences(context.Background(), model.OccurrenceFilter{Date: &day, EmployeeID: employeeID})
	require.NoError(t, err)
	out := map[worklog.OccurrenceType]model.Occurrence{}
	for _, o := range list {
		out[o.Type] = o
	}
	return out
}

func TestSaveDailyWorklogReconcilesOccurrences(t *testing.T) {
	repo := newTestRepository(t)
	emp := seedEmployee(t, repo)
	ctx := context.Background()
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	wl := model.DailyWorklog{EmployeeID: emp.ID, Date: day, WorkedMinutes: 469, LateMinutes: 11, UnderMinutes: 11, Status: model.StatusWorklogProcessed}

	created, err := repo.SaveDailyWorklog(ctx, wl, []worklog.Occurrence{
		{Type: worklog.OccurrenceLate, Minutes: 11},
		{Type: worklog.OccurrenceUnder, Minutes: 11},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, o := range created {
		assert.Equal(t, model.StatusOccurrenceOpen, o.Status)
		assert.NotEmpty(t, o.ID)
	}
	lateID := occurrencesOf(t, repo, emp.ID, day)[worklog.OccurrenceLate].ID

	// Same types again: updated in place, nothing reported as new, the
	// shortfall that is no longer produced goes away.
	wl.LateMinutes, wl.UnderMinutes = 15, 0
	created, err = repo.SaveDailyWorklog(ctx, wl, []worklog.Occurrence{{Type: worklog.OccurrenceLate, Minutes: 15}})
	require.NoError(t, err)
	assert.Empty(t, created)

	got := occurrencesOf(t, repo, emp.ID, day)
	require.Len(t, got, 1)
	assert.Equal(t, lateID, got[worklog.OccurrenceLate].ID)
	assert.Equal(t, 15, got[worklog.OccurrenceLate].Minutes)

	var lateMinutes int
	require.NoError(t, repo.DB.QueryRowContext(ctx,
		`SELECT late_minutes FROM daily_worklogs WHERE employee_id = $1 AND date = $2`, emp.ID, dateKey(day)).
		Scan(&lateMinutes))
	assert.Equal(t, 15, lateMinutes)
}

func TestSaveDailyWorklogWithNoOccurrencesDropsOnlyOpenOnes(t *testing.T) {
	repo := newTestRepository(t)
	emp := seedEmployee(t, repo)
	ctx := context.Background()
	day := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	wl := model.DailyWorklog{EmployeeID: emp.ID, Date: day, Status: model.StatusWorklogProcessed}

	created, err := repo.SaveDailyWorklog(ctx, wl, []worklog.Occurrence{
		{Type: worklog.OccurrenceLate, Minutes: 20},
		{Type: worklog.OccurrenceOver, Minutes: 45},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	late := occurrencesOf(t, repo, emp.ID, day)[worklog.OccurrenceLate]
	_, err = repo.UpdateOccurrenceStatus(ctx, late.ID, model.StatusOccurrenceAck, nil)
	require.NoError(t, err)

	// An empty type list becomes an empty array, so every OPEN row is stale.
	created, err = repo.SaveDailyWorklog(ctx, wl, nil)
	require.NoError(t, err)
	assert.Empty(t, created)

	got := occurrencesOf(t, repo, emp.ID, day)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusOccurrenceAck, got[worklog.OccurrenceLate].Status)
}

func TestNotificationLogLookups(t *testing.T) {
	repo := newTestRepository(t)
	emp := seedEmployee(t, repo)
	ctx := context.Background()
	day := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	created, err := repo.SaveDailyWorklog(ctx,
		model.DailyWorklog{EmployeeID: emp.ID, Date: day, Status: model.StatusWorklogProcessed},
		[]worklog.Occurrence{{Type: worklog.OccurrenceLate, Minutes: 11}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	occurrenceID, justificationID := created[0].ID, uuid.NewString()

	require.NoError(t, repo.LogNotification(ctx, model.NotificationLog{
		EmployeeID:      emp.ID,
		OccurrenceID:    &occurrenceID,
		JustificationID: &justificationID,
		Channel:         model.ChannelManager,
	}))

	sent, err := repo.HasNotification(ctx, occurrenceID, model.ChannelManager)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = repo.HasJustificationNotification(ctx, justificationID, model.ChannelManager)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = repo.HasJustificationNotification(ctx, uuid.NewString(), model.ChannelManager)
	require.NoError(t, err)
	assert.False(t, sent)
}
