package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/provider/tangerino"
)

// memoryRepo is an in-memory stand-in for the Postgres repository.
type memoryRepo struct {
	mu             sync.Mutex
	seq            int
	employees      map[string]*model.Employee
	sectors        map[string]*model.Sector
	punches        []model.PunchEvent
	worklogs       map[string]model.DailyWorklog
	occurrences    map[string]*model.Occurrence
	justifications []model.Justification
	notifications  []model.NotificationLog

	failPunchesFor map[string]bool
	saveErr        error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		employees:      map[string]*model.Employee{},
		sectors:        map[string]*model.Sector{},
		worklogs:       map[string]model.DailyWorklog{},
		occurrences:    map[string]*model.Occurrence{},
		failPunchesFor: map[string]bool{},
	}
}

func (r *memoryRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memoryRepo) addEmployee(id, externalID, sectorID string, active bool) {
	r.employees[id] = &model.Employee{ID: id, Name: "Employee " + id, ExternalID: externalID, SectorID: sectorID, Active: active}
}

func (r *memoryRepo) addOccurrence(id, employeeID string, status model.OccurrenceStatus) *model.Occurrence {
	o := &model.Occurrence{
		ID:         id,
		EmployeeID: employeeID,
		Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Type:       worklog.OccurrenceLate,
		Minutes:    11,
		Status:     status,
	}
	r.occurrences[id] = o
	return o
}

func (r *memoryRepo) ListEmployees(_ context.Context, activeOnly bool) ([]model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Employee{}
	for _, e := range r.employees {
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) GetEmployee(_ context.Context, id string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memoryRepo) GetEmployeeByExternalID(_ context.Context, externalID string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.ExternalID == externalID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) UpsertEmployeeByExternalID(_ context.Context, externalID, name, sectorID string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.ExternalID == externalID {
			e.Name = name
			cp := *e
			return &cp, nil
		}
	}
	e := &model.Employee{ID: r.nextID("emp"), Name: name, ExternalID: externalID, SectorID: sectorID, Active: true}
	r.employees[e.ID] = e
	cp := *e
	return &cp, nil
}

func (r *memoryRepo) UpdateEmployee(_ context.Context, id string, upd model.EmployeeUpdate) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.ChatUserID != nil {
		e.ChatUserID = upd.ChatUserID
	}
	if upd.SectorID != nil {
		e.SectorID = *upd.SectorID
	}
	if upd.Active != nil {
		e.Active = *upd.Active
	}
	cp := *e
	return &cp, nil
}

func (r *memoryRepo) ListSectors(_ context.Context) ([]model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Sector{}
	for _, s := range r.sectors {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memoryRepo) GetSector(_ context.Context, id string) (*model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sectors[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memoryRepo) FindSectorByName(_ context.Context, name string) (*model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sectors {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) CreateSector(_ context.Context, name, manager string) (*model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.Sector{ID: r.nextID("sector"), Name: name, ManagerChatUserID: manager}
	r.sectors[s.ID] = s
	cp := *s
	return &cp, nil
}

func (r *memoryRepo) UpdateSector(_ context.Context, id string, upd model.SectorUpdate) (*model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sectors[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.ManagerChatUserID != nil {
		s.ManagerChatUserID = *upd.ManagerChatUserID
	}
	cp := *s
	return &cp, nil
}

func (r *memoryRepo) ListPunches(_ context.Context, employeeID string, from, to time.Time) ([]model.PunchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPunchesFor[employeeID] {
		return nil, errors.New("connection reset")
	}
	out := []model.PunchEvent{}
	for _, p := range r.punches {
		if p.EmployeeID == employeeID && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) InsertPunchIfAbsent(_ context.Context, p model.PunchEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.punches {
		if existing.EmployeeID == p.EmployeeID && existing.Timestamp.Equal(p.Timestamp) {
			return false, nil
		}
	}
	p.ID = r.nextID("punch")
	r.punches = append(r.punches, p)
	return true, nil
}

func (r *memoryRepo) SaveDailyWorklog(_ context.Context, wl model.DailyWorklog, occurrences []worklog.Occurrence) ([]model.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	day := wl.Date.Format(time.DateOnly)
	r.worklogs[wl.EmployeeID+"/"+day] = wl

	produced := map[worklog.OccurrenceType]bool{}
	created := []model.Occurrence{}
	for _, o := range occurrences {
		produced[o.Type] = true
		var existing *model.Occurrence
		for _, occ := range r.occurrences {
			if occ.EmployeeID == wl.EmployeeID && occ.Date.Format(time.DateOnly) == day && occ.Type == o.Type {
				existing = occ
			}
		}
		if existing != nil {
			existing.Minutes = o.Minutes
			continue
		}
		occ := &model.Occurrence{
			ID:         r.nextID("occ"),
			EmployeeID: wl.EmployeeID,
			Date:       wl.Date,
			Type:       o.Type,
			Minutes:    o.Minutes,
			Status:     model.StatusOccurrenceOpen,
		}
		r.occurrences[occ.ID] = occ
		created = append(created, *occ)
	}
	for id, occ := range r.occurrences {
		if occ.EmployeeID == wl.EmployeeID && occ.Date.Format(time.DateOnly) == day &&
			occ.Status == model.StatusOccurrenceOpen && !produced[occ.Type] {
			delete(r.occurrences, id)
		}
	}
	return created, nil
}

func (r *memoryRepo) ListOccurrences(_ context.Context, f model.OccurrenceFilter) ([]model.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Occurrence{}
	for _, o := range r.occurrences {
		if f.Date != nil && dateKey(o.Date) != dateKey(*f.Date) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.EmployeeID != "" && o.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *memoryRepo) GetOccurrence(_ context.Context, id string) (*model.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occurrences[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memoryRepo) UpdateOccurrenceStatus(_ context.Context, id string, status model.OccurrenceStatus, note *string) (*model.Occurrence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.occurrences[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	if note != nil {
		o.ResolutionNote = note
	}
	cp := *o
	return &cp, nil
}

func (r *memoryRepo) OccurrenceStats(_ context.Context, date time.Time) (*model.OccurrenceStats, error) {
	return &model.OccurrenceStats{Date: date.Format(time.DateOnly), ByType: map[string]int{}}, nil
}

func (r *memoryRepo) AddJustification(_ context.Context, j *model.Justification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = r.nextID("just")
	r.justifications = append(r.justifications, *j)
	if o, ok := r.occurrences[j.OccurrenceID]; ok && o.Status == model.StatusOccurrenceOpen {
		o.Status = model.StatusOccurrenceAck
	}
	return nil
}

func (r *memoryRepo) ListJustifications(_ context.Context, f model.JustificationFilter) ([]model.Justification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Justification{}
	for _, j := range r.justifications {
		if f.OccurrenceID != "" && j.OccurrenceID != f.OccurrenceID {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func (r *memoryRepo) GetJustification(_ context.Context, id string) (*model.Justification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.justifications {
		if j.ID == id {
			cp := j
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) LogNotification(_ context.Context, n model.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *memoryRepo) HasNotification(_ context.Context, occurrenceID string, channel model.NotificationChannel) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.OccurrenceID != nil && *n.OccurrenceID == occurrenceID && n.Channel == channel {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) HasJustificationNotification(_ context.Context, justificationID string, channel model.NotificationChannel) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.JustificationID != nil && *n.JustificationID == justificationID && n.Channel == channel {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) DashboardKPIs(_ context.Context, _ time.Time) (*model.DashboardKPIs, error) {
	return &model.DashboardKPIs{TotalEmployees: len(r.employees), ExtraMinutesToday: 90, UnderMinutesToday: 45}, nil
}

func (r *memoryRepo) Ping(context.Context) error { return nil }

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu            sync.Mutex
	notifications []messaging.NotificationEvent
	escalations   []messaging.EscalationEvent
	err           error
}

func (p *recordingPublisher) PublishNotification(_ context.Context, e messaging.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, e)
	return p.err
}

func (p *recordingPublisher) PublishEscalation(_ context.Context, e messaging.EscalationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escalations = append(p.escalations, e)
	return p.err
}

type fakeProvider struct {
	employees []tangerino.Employee
	punches   []tangerino.Punch
	err       error
}

func (p *fakeProvider) FetchEmployees(context.Context) ([]tangerino.Employee, error) {
	return p.employees, p.err
}

func (p *fakeProvider) FetchPunches(context.Context, time.Time, time.Time) ([]tangerino.Punch, error) {
	return p.punches, p.err
}

func (p *fakeProvider) TestConnection(context.Context) error { return p.err }
