package model

import (
	"time"

	"timesheet.service/internal/core/worklog"
)

// WorklogStatus defines the state of a daily worklog row.
type WorklogStatus string

const (
	StatusWorklogPending   WorklogStatus = "PENDING"
	StatusWorklogProcessed WorklogStatus = "PROCESSED"
	StatusWorklogError     WorklogStatus = "ERROR"
)

// OccurrenceStatus defines where an occurrence is in the human workflow.
type OccurrenceStatus string

const (
	StatusOccurrenceOpen     OccurrenceStatus = "OPEN"
	StatusOccurrenceAck      OccurrenceStatus = "ACK"
	StatusOccurrenceResolved OccurrenceStatus = "RESOLVED"
)

// Valid reports whether s is a known occurrence status.
func (s OccurrenceStatus) Valid() bool {
	switch s {
	case StatusOccurrenceOpen, StatusOccurrenceAck, StatusOccurrenceResolved:
		return true
	}
	return false
}

// NotificationChannel identifies who a notification was delivered to.
type NotificationChannel string

const (
	ChannelEmployee NotificationChannel = "DM_EMPLOYEE"
	ChannelManager  NotificationChannel = "DM_MANAGER"
	ChannelHR       NotificationChannel = "HR"
)

// JustificationCategory is the reason an employee gives for an occurrence.
type JustificationCategory string

const (
	CategoryMedical     JustificationCategory = "MEDICAL"
	CategoryPersonal    JustificationCategory = "PERSONAL"
	CategoryTraffic     JustificationCategory = "TRAFFIC"
	CategoryWorkOffsite JustificationCategory = "WORK_OFFSITE"
	CategoryMeeting     JustificationCategory = "MEETING"
	CategoryOther       JustificationCategory = "OTHER"
)

// Valid reports whether c is a known category.
func (c JustificationCategory) Valid() bool {
	switch c {
	case CategoryMedical, CategoryPersonal, CategoryTraffic, CategoryWorkOffsite, CategoryMeeting, CategoryOther:
		return true
	}
	return false
}

// ResolveAction is the manager's decision on an occurrence.
type ResolveAction string

const (
	ActionApprove        ResolveAction = "approve"
	ActionAdjust         ResolveAction = "adjust"
	ActionRequestDetails ResolveAction = "request_details"
)

type Sector struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	ManagerChatUserID string    `json:"managerChatUserId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ExternalID string    `json:"externalId"`
	ChatUserID *string   `json:"chatUserId,omitempty"`
	SectorID   string    `json:"sectorId"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PunchEvent is a stored punch as received from the provider.
type PunchEvent struct {
	ID            string            `json:"id"`
	EmployeeID    string            `json:"employeeId"`
	Timestamp     time.Time         `json:"timestamp"`
	Type          worklog.PunchType `json:"type"`
	SourcePayload []byte            `json:"-"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type DailyWorklog struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employeeId"`
	Date          time.Time     `json:"date"`
	WorkedMinutes int           `json:"workedMinutes"`
	LateMinutes   int           `json:"lateMinutes"`
	ExtraMinutes  int           `json:"extraMinutes"`
	UnderMinutes  int           `json:"underMinutes"`
	Status        WorklogStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewDailyWorklog derives the persisted row from a calculation. Incomplete
// days are stored with the ERROR status.
func NewDailyWorklog(employeeID string, date time.Time, calc worklog.WorklogCalculation) DailyWorklog {
	status := StatusWorklogProcessed
	if calc.IsIncomplete {
		status = StatusWorklogError
	}
	return DailyWorklog{
		EmployeeID:    employeeID,
		Date:          date,
		WorkedMinutes: calc.WorkedMinutes,
		LateMinutes:   calc.LateMinutes,
		ExtraMinutes:  calc.ExtraMinutes,
		UnderMinutes:  calc.UnderMinutes,
		Status:        status,
	}
}

type Occurrence struct {
	ID             string                 `json:"id"`
	EmployeeID     string                 `json:"employeeId"`
	Date           time.Time              `json:"date"`
	Type           worklog.OccurrenceType `json:"type"`
	Minutes        int                    `json:"minutes"`
	Status         OccurrenceStatus       `json:"status"`
	ResolutionNote *string                `json:"resolutionNote,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// OccurrenceDetail is an occurrence together with its owner and the
// justifications given for it.
type OccurrenceDetail struct {
	Occurrence
	Employee       *Employee       `json:"employee,omitempty"`
	Sector         *Sector         `json:"sector,omitempty"`
	Justifications []Justification `json:"justifications"`
}

type OccurrenceFilter struct {
	Date       *time.Time
	Status     OccurrenceStatus
	EmployeeID string
	Type       worklog.OccurrenceType
}

type Justification struct {
	ID           string                 `json:"id"`
	OccurrenceID string                 `json:"occurrenceId"`
	EmployeeID   string                 `json:"employeeId"`
	Date         time.Time              `json:"date"`
	Text         string                 `json:"text"`
	Category     *JustificationCategory `json:"category,omitempty"`
	NotifyHR     bool                   `json:"notifyHR"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type JustificationFilter struct {
	OccurrenceID string
	EmployeeID   string
	Date         *time.Time
}

type NotificationLog struct {
	ID              string              `json:"id"`
	EmployeeID      string              `json:"employeeId"`
	OccurrenceID    *string             `json:"occurrenceId,omitempty"`
	JustificationID *string             `json:"justificationId,omitempty"`
	Channel         NotificationChannel `json:"channel"`
	MessageRef      *string             `json:"messageRef,omitempty"`
	SentAt          time.Time           `json:"sentAt"`
}

// OccurrenceStats summarises a day's occurrences.
type OccurrenceStats struct {
	Date     string         `json:"date"`
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	Ack      int            `json:"ack"`
	Resolved int            `json:"resolved"`
	ByType   map[string]int `json:"byType"`
}

type DashboardKPIs struct {
	TotalEmployees    int    `json:"totalEmployees"`
	ActiveEmployees   int    `json:"activeEmployees"`
	TotalSectors      int    `json:"totalSectors"`
	TodayOccurrences  int    `json:"todayOccurrences"`
	OpenOccurrences   int    `json:"openOccurrences"`
	ResolvedToday     int    `json:"resolvedToday"`
	LateToday         int    `json:"lateToday"`
	OverToday         int    `json:"overToday"`
	UnderToday        int    `json:"underToday"`
	IncompleteToday   int    `json:"incompleteToday"`
	ExtraMinutesToday int    `json:"extraMinutesToday"`
	UnderMinutesToday int    `json:"underMinutesToday"`
	ExtraHoursToday   string `json:"extraHoursToday"`
	MissingHoursToday string `json:"missingHoursToday"`
}

// EmployeeUpdate carries the editable fields of an employee. Nil fields are
// left untouched.
type EmployeeUpdate struct {
	Name       *string `json:"name,omitempty"`
	ChatUserID *string `json:"chatUserId,omitempty"`
	SectorID   *string `json:"sectorId,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type SectorUpdate struct {
	Name              *string `json:"name,omitempty"`
	ManagerChatUserID *string `json:"managerChatUserId,omitempty"`
}
