package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet.service/internal/api/handler"
	"timesheet.service/internal/core"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
)

var today = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type fakeClock struct{}

func (fakeClock) Location() *time.Location { return time.UTC }
func (fakeClock) Today() time.Time         { return today }

type fakeDirectory struct {
	pingErr  error
	kpisDate time.Time
}

func (f *fakeDirectory) ListEmployees(_ context.Context, activeOnly bool) ([]model.Employee, error) {
	return []model.Employee{{ID: "e-1", Name: "Ana", Active: activeOnly}}, nil
}
func (f *fakeDirectory) GetEmployee(_ context.Context, id string) (*model.Employee, error) {
	if id != "e-1" {
		return nil, core.ErrNotFound
	}
	return &model.Employee{ID: id, Name: "Ana"}, nil
}
func (f *fakeDirectory) UpdateEmployee(_ context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error) {
	return &model.Employee{ID: id, Name: *upd.Name}, nil
}
func (f *fakeDirectory) ListSectors(context.Context) ([]model.Sector, error) { return nil, nil }
func (f *fakeDirectory) CreateSector(_ context.Context, name, manager string) (*model.Sector, error) {
	if name == "" {
		return nil, errors.Join(core.ErrInvalidInput, errors.New("name is required"))
	}
	return &model.Sector{ID: "s-1", Name: name, ManagerChatUserID: manager}, nil
}
func (f *fakeDirectory) UpdateSector(_ context.Context, id string, _ model.SectorUpdate) (*model.Sector, error) {
	return &model.Sector{ID: id}, nil
}
func (f *fakeDirectory) DashboardKPIs(_ context.Context, date time.Time) (*model.DashboardKPIs, error) {
	f.kpisDate = date
	return &model.DashboardKPIs{TotalEmployees: 3}, nil
}
func (f *fakeDirectory) Ping(context.Context) error { return f.pingErr }

type fakeOccurrences struct {
	filter  model.OccurrenceFilter
	justify core.JustifyInput
}

func (f *fakeOccurrences) List(_ context.Context, flt model.OccurrenceFilter) ([]model.Occurrence, error) {
	f.filter = flt
	return []model.Occurrence{}, nil
}
func (f *fakeOccurrences) Get(_ context.Context, id string) (*model.OccurrenceDetail, error) {
	return &model.OccurrenceDetail{Occurrence: model.Occurrence{ID: id}}, nil
}
func (f *fakeOccurrences) Stats(_ context.Context, date time.Time) (*model.OccurrenceStats, error) {
	return &model.OccurrenceStats{Date: date.Format(time.DateOnly)}, nil
}
func (f *fakeOccurrences) Ack(_ context.Context, id string) (*model.Occurrence, error) {
	return nil, core.ErrOccurrenceAlreadyProcessed
}
func (f *fakeOccurrences) Resolve(_ context.Context, id string, action model.ResolveAction, _ *string) (*model.Occurrence, error) {
	if action != model.ActionApprove {
		return nil, core.ErrInvalidAction
	}
	return &model.Occurrence{ID: id, Status: model.StatusOccurrenceResolved}, nil
}
func (f *fakeOccurrences) Justify(_ context.Context, in core.JustifyInput) (*model.Justification, error) {
	f.justify = in
	return &model.Justification{ID: "j-1", OccurrenceID: in.OccurrenceID, Text: in.Text}, nil
}
func (f *fakeOccurrences) ListJustifications(context.Context, model.JustificationFilter) ([]model.Justification, error) {
	return nil, nil
}
func (f *fakeOccurrences) GetJustification(_ context.Context, id string) (*model.Justification, error) {
	return &model.Justification{ID: id}, nil
}

type fakeWorklogs struct {
	fakeClock
	closedFor string
	closedDay time.Time
}

func (f *fakeWorklogs) Preview(punches []worklog.Punch, cfg *worklog.WorkdayConfig) worklog.WorklogCalculation {
	c := worklog.DefaultWorkdayConfig()
	if cfg != nil {
		c = *cfg
	}
	return worklog.CalculateWorklog(punches, c)
}
func (f *fakeWorklogs) CloseDay(_ context.Context, employeeID string, day time.Time) (worklog.WorklogCalculation, error) {
	if employeeID == "ghost" {
		return worklog.WorklogCalculation{}, fmt.Errorf("employee %s: %w", employeeID, core.ErrNotFound)
	}
	f.closedFor, f.closedDay = employeeID, day
	return worklog.WorklogCalculation{}, nil
}
func (f *fakeWorklogs) ProcessDayForAllEmployees(_ context.Context, day time.Time) (core.DailyCloseResult, error) {
	f.closedDay = day
	return core.DailyCloseResult{Date: day.Format(time.DateOnly), Processed: 2}, nil
}

type fakeSync struct{}

func (fakeSync) FullSync(_ context.Context, start, end time.Time) (core.SyncResult, error) {
	if end.Before(start) {
		return core.SyncResult{}, errors.Join(core.ErrInvalidInput, errors.New("end date before start date"))
	}
	return core.SyncResult{EmployeesSynced: 4}, nil
}
func (fakeSync) Status(context.Context) core.IntegrationStatus {
	return core.IntegrationStatus{Provider: "tangerino", Connected: true, ReadOnly: true}
}

type fixture struct {
	dir      *fakeDirectory
	occ      *fakeOccurrences
	worklogs *fakeWorklogs
	router   http.Handler
}

func newFixture() *fixture {
	f := &fixture{dir: &fakeDirectory{}, occ: &fakeOccurrences{}, worklogs: &fakeWorklogs{}}
	f.router = LoggerMiddleware(NewRouter(Handlers{
		Directory:    &handler.DirectoryHandler{Service: f.dir, Clock: fakeClock{}},
		Occurrences:  &handler.OccurrenceHandler{Service: f.occ, Clock: fakeClock{}},
		Worklogs:     &handler.WorklogHandler{Service: f.worklogs},
		Integrations: &handler.IntegrationHandler{Service: fakeSync{}, Clock: fakeClock{}},
	}))
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	f := newFixture()
	code, env := f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	f.dir.pingErr = errors.New("down")
	code, env = f.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)
}

func TestEmployees(t *testing.T) {
	f := newFixture()

	code, env := f.do(t, http.MethodGet, "/api/v1/employees?active=true", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"id":"e-1","name":"Ana","externalId":"","sectorId":"","active":true,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}]`, string(env.Data))

	code, env = f.do(t, http.MethodGet, "/api/v1/employees/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, env = f.do(t, http.MethodPatch, "/api/v1/employees/e-1", `{"name":"Ana Lima"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"name":"Ana Lima"`)

	code, _ = f.do(t, http.MethodPatch, "/api/v1/employees/e-1", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateSector(t *testing.T) {
	f := newFixture()

	code, env := f.do(t, http.MethodPost, "/api/v1/sectors", `{"name":"Ops","managerChatUserId":"U1"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"managerChatUserId":"U1"`)

	code, env = f.do(t, http.MethodPost, "/api/v1/sectors", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestOccurrenceFiltersAndWorkflowErrors(t *testing.T) {
	f := newFixture()

	code, _ := f.do(t, http.MethodGet, "/api/v1/occurrences?date=2024-01-10&status=OPEN&employeeId=e-1&type=LATE", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, f.occ.filter.Date)
	assert.Equal(t, "2024-01-10", f.occ.filter.Date.Format(time.DateOnly))
	assert.Equal(t, model.StatusOccurrenceOpen, f.occ.filter.Status)
	assert.Equal(t, worklog.OccurrenceLate, f.occ.filter.Type)

	code, _ = f.do(t, http.MethodGet, "/api/v1/occurrences?date=10/01/2024", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := f.do(t, http.MethodGet, "/api/v1/occurrences/stats", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"date":"2024-01-15"`)

	code, _ = f.do(t, http.MethodPost, "/api/v1/occurrences/o-1/ack", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodPost, "/api/v1/occurrences/o-1/resolve", `{"action":"dismiss"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, "/api/v1/occurrences/o-1/resolve", `{"action":"approve","note":"ok"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"RESOLVED"`)
}

func TestJustify(t *testing.T) {
	f := newFixture()

	code, _ := f.do(t, http.MethodPost, "/api/v1/justifications", `{"occurrenceId":"o-1","text":"Transito","category":"TRAFFIC","notifyHR":true}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "o-1", f.occ.justify.OccurrenceID)
	require.NotNil(t, f.occ.justify.Category)
	assert.Equal(t, model.CategoryTraffic, *f.occ.justify.Category)
	assert.True(t, f.occ.justify.NotifyHR)
}

func TestCalculatePreview(t *testing.T) {
	f := newFixture()
	body := `{"punches":[
		{"timestamp":"2024-01-15T08:00:00Z","type":"ENTRY"},
		{"timestamp":"2024-01-15T12:00:00Z","type":"EXIT"},
		{"timestamp":"2024-01-15T13:00:00Z","type":"ENTRY"},
		{"timestamp":"2024-01-15T19:00:00Z","type":"EXIT"}]}`

	code, env := f.do(t, http.MethodPost, "/api/v1/worklogs/calculate", body)
	require.Equal(t, http.StatusOK, code)

	var got handler.CalculateResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 480, got.WorkedMinutes)
	assert.Empty(t, got.Occurrences)
	assert.Equal(t, "8h", got.Formatted["worked"])

	code, _ = f.do(t, http.MethodPost, "/api/v1/worklogs/calculate", `{"punches":[{"timestamp":"2024-01-15T08:00:00Z","type":"IN"}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCloseDay(t *testing.T) {
	f := newFixture()

	code, env := f.do(t, http.MethodPost, "/api/v1/worklogs/close", `{}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, today, f.worklogs.closedDay)
	assert.Contains(t, string(env.Data), `"processed":2`)

	code, _ = f.do(t, http.MethodPost, "/api/v1/worklogs/close", `{"date":"2024-01-12","employeeId":"e-9"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "e-9", f.worklogs.closedFor)
	assert.Equal(t, "2024-01-12", f.worklogs.closedDay.Format(time.DateOnly))

	code, env = f.do(t, http.MethodPost, "/api/v1/worklogs/close", `{"employeeId":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)

	code, _ = f.do(t, http.MethodPost, "/api/v1/worklogs/close", `{"date":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCloseDayWithEmptyBodyClosesToday(t *testing.T) {
	f := newFixture()
	f.worklogs.closedDay = time.Time{}

	code, env := f.do(t, http.MethodPost, "/api/v1/worklogs/close", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, today, f.worklogs.closedDay)
	assert.Empty(t, f.worklogs.closedFor)
}

func TestIntegrations(t *testing.T) {
	f := newFixture()

	code, env := f.do(t, http.MethodPost, "/api/v1/integrations/sync", `{"startDate":"2024-01-10","endDate":"2024-01-12"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"employeesSynced":4`)

	code, _ = f.do(t, http.MethodPost, "/api/v1/integrations/sync", `{"startDate":"2024-01-12","endDate":"2024-01-10"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodGet, "/api/v1/integrations/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"connected":true`)
}

func TestDashboardDefaultsToToday(t *testing.T) {
	f := newFixture()

	code, _ := f.do(t, http.MethodGet, "/api/v1/dashboard/kpis", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, today, f.dir.kpisDate)
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(newFixture().router, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sectors", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
