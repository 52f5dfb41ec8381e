package core

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/internal/ports/messaging"
)

func noLunchWorkday() worklog.WorkdayConfig {
	cfg := worklog.DefaultWorkdayConfig()
	cfg.LunchPolicy = nil
	return cfg
}

func maceio(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Maceio")
	require.NoError(t, err)
	return loc
}

// addDay stores a 08:11-12:00 / 13:00-17:00 local day (UTC-3) for employeeID,
// adding the employee when it is not known yet.
func addDay(repo *memoryRepo, employeeID string) {
	if _, ok := repo.employees[employeeID]; !ok {
		repo.addEmployee(employeeID, "x-"+employeeID, "s1", true)
	}
	for _, p := range []struct {
		hour, minute int
		typ          worklog.PunchType
	}{
		{11, 11, worklog.PunchEntry},
		{15, 0, worklog.PunchExit},
		{16, 0, worklog.PunchEntry},
		{20, 0, worklog.PunchExit},
	} {
		repo.punches = append(repo.punches, model.PunchEvent{
			EmployeeID: employeeID,
			Timestamp:  time.Date(2024, 1, 15, p.hour, p.minute, 0, 0, time.UTC),
			Type:       p.typ,
		})
	}
}

var closeDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestProcessDayReadsPunchesInServiceTimezone(t *testing.T) {
	repo := newMemoryRepo()
	addDay(repo, "e1")
	svc := NewWorklogService(repo, &recordingPublisher{}, noLunchWorkday(), maceio(t))

	calc, err := svc.ProcessDay(context.Background(), "e1", closeDay)
	require.NoError(t, err)

	assert.False(t, calc.IsIncomplete)
	assert.Equal(t, 469, calc.WorkedMinutes)
	assert.Equal(t, 11, calc.LateMinutes)
	assert.Equal(t, 11, calc.UnderMinutes)
	assert.Equal(t, []worklog.Occurrence{
		{Type: worklog.OccurrenceLate, Minutes: 11},
		{Type: worklog.OccurrenceUnder, Minutes: 11},
	}, calc.Occurrences)
}

func TestCloseDayPersistsAndAnnouncesNewOccurrencesOnce(t *testing.T) {
	repo := newMemoryRepo()
	addDay(repo, "e1")
	pub := &recordingPublisher{}
	svc := NewWorklogService(repo, pub, noLunchWorkday(), maceio(t))
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, "e1", closeDay)
	require.NoError(t, err)

	wl := repo.worklogs["e1/2024-01-15"]
	assert.Equal(t, model.StatusWorklogProcessed, wl.Status)
	assert.Equal(t, 469, wl.WorkedMinutes)
	require.Len(t, pub.notifications, 2)
	for _, n := range pub.notifications {
		assert.Equal(t, messaging.KindOccurrenceOpened, n.Kind)
		assert.Equal(t, "2024-01-15", n.Date)
		assert.NotEmpty(t, n.OccurrenceID)
	}

	_, err = svc.CloseDay(ctx, "e1", closeDay)
	require.NoError(t, err)
	assert.Len(t, pub.notifications, 2)
	assert.Len(t, repo.occurrences, 2)
}

func TestReclosingKeepsWorkflowState(t *testing.T) {
	repo := newMemoryRepo()
	addDay(repo, "e1")
	svc := NewWorklogService(repo, &recordingPublisher{}, noLunchWorkday(), maceio(t))
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, "e1", closeDay)
	require.NoError(t, err)

	late, err := repo.ListOccurrences(ctx, model.OccurrenceFilter{Type: worklog.OccurrenceLate})
	require.NoError(t, err)
	require.Len(t, late, 1)
	_, err = repo.UpdateOccurrenceStatus(ctx, late[0].ID, model.StatusOccurrenceAck, nil)
	require.NoError(t, err)

	// A late punch-out arrives and the shortfall disappears.
	repo.punches[3].Timestamp = repo.punches[3].Timestamp.Add(11 * time.Minute)
	calc, err := svc.CloseDay(ctx, "e1", closeDay)
	require.NoError(t, err)
	assert.Equal(t, 0, calc.UnderMinutes)

	remaining, err := repo.ListOccurrences(ctx, model.OccurrenceFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, late[0].ID, remaining[0].ID)
	assert.Equal(t, model.StatusOccurrenceAck, remaining[0].Status)
}

func TestCloseDayMarksIncompleteDaysAsError(t *testing.T) {
	repo := newMemoryRepo()
	repo.addEmployee("e1", "x1", "s1", true)
	svc := NewWorklogService(repo, &recordingPublisher{}, noLunchWorkday(), maceio(t))

	calc, err := svc.CloseDay(context.Background(), "e1", closeDay)
	require.NoError(t, err)

	assert.True(t, calc.IsIncomplete)
	assert.Equal(t, model.StatusWorklogError, repo.worklogs["e1/2024-01-15"].Status)
	require.Len(t, repo.occurrences, 1)
	for _, o := range repo.occurrences {
		assert.Equal(t, worklog.OccurrenceIncomplete, o.Type)
		assert.Equal(t, 0, o.Minutes)
	}
}

func TestCloseDayRejectsUnknownEmployee(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewWorklogService(repo, &recordingPublisher{}, noLunchWorkday(), maceio(t))

	_, err := svc.CloseDay(context.Background(), "ghost", closeDay)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.worklogs)
	assert.Empty(t, repo.occurrences)
}

func TestSaveWorklogIgnoresPublishFailures(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{err: errors.New("queue unavailable")}
	svc := NewWorklogService(repo, pub, noLunchWorkday(), time.UTC)

	calc := worklog.CalculateWorklog(nil, noLunchWorkday())
	created, err := svc.SaveWorklog(context.Background(), "e1", closeDay, calc)

	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Len(t, pub.notifications, 1)
}

func TestSaveWorklogPropagatesStoreErrors(t *testing.T) {
	repo := newMemoryRepo()
	repo.saveErr = errors.New("tx aborted")
	pub := &recordingPublisher{}
	svc := NewWorklogService(repo, pub, noLunchWorkday(), time.UTC)

	_, err := svc.SaveWorklog(context.Background(), "e1", closeDay, worklog.CalculateWorklog(nil, noLunchWorkday()))

	require.Error(t, err)
	assert.Empty(t, pub.notifications)
}

func TestProcessDayForAllEmployeesCountsFailures(t *testing.T) {
	repo := newMemoryRepo()
	repo.addEmployee("e1", "x1", "s1", true)
	repo.addEmployee("e2", "x2", "s1", true)
	repo.addEmployee("e3", "x3", "s1", true)
	repo.addEmployee("e4", "x4", "s1", false)
	addDay(repo, "e1")
	repo.failPunchesFor["e3"] = true

	svc := NewWorklogService(repo, &recordingPublisher{}, noLunchWorkday(), maceio(t))
	svc.Concurrency = 2

	result, err := svc.ProcessDayForAllEmployees(context.Background(), closeDay)
	require.NoError(t, err)

	assert.Equal(t, DailyCloseResult{Date: "2024-01-15", Processed: 2, Errors: 1, Occurrences: 3}, result)
	assert.Contains(t, repo.worklogs, "e1/2024-01-15")
	assert.Contains(t, repo.worklogs, "e2/2024-01-15")
	assert.NotContains(t, repo.worklogs, "e4/2024-01-15")
}

func TestPreviewUsesOverrideWhenGiven(t *testing.T) {
	svc := NewWorklogService(newMemoryRepo(), &recordingPublisher{}, noLunchWorkday(), time.UTC)
	at := func(h, m int) time.Time { return time.Date(2024, 1, 15, h, m, 0, 0, time.UTC) }
	punches := []worklog.Punch{
		{Timestamp: at(8, 11), Type: worklog.PunchEntry},
		{Timestamp: at(12, 0), Type: worklog.PunchExit},
		{Timestamp: at(13, 0), Type: worklog.PunchEntry},
		{Timestamp: at(17, 0), Type: worklog.PunchExit},
	}

	assert.Equal(t, 11, svc.Preview(punches, nil).LateMinutes)

	lenient := noLunchWorkday()
	lenient.ToleranceMinutes = 15
	assert.Equal(t, 0, svc.Preview(punches, &lenient).LateMinutes)
}
