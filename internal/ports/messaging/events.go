package messaging

import (
	"time"

	"github.com/shopspring/decimal"
	"timesheet.service/internal/core/worklog"
)

// NotificationKind tells the notification worker who the message is for.
type NotificationKind string

const (
	// KindOccurrenceOpened goes to the employee as a direct message.
	KindOccurrenceOpened NotificationKind = "OCCURRENCE_OPENED"
	// KindJustificationSubmitted goes to the sector manager.
	KindJustificationSubmitted NotificationKind = "JUSTIFICATION_SUBMITTED"
	// KindDailySummary lists an employee's OPEN occurrences of the day.
	KindDailySummary NotificationKind = "DAILY_SUMMARY"
)

// SummaryItem is one occurrence inside a daily summary.
type SummaryItem struct {
	OccurrenceID string                 `json:"occurrenceId"`
	Type         worklog.OccurrenceType `json:"type"`
	Minutes      int                    `json:"minutes"`
}

// NotificationEvent is the JSON payload sent via SQS for the notification queue
type NotificationEvent struct {
	Kind            NotificationKind       `json:"kind"`
	OccurrenceID    string                 `json:"occurrenceId"`
	EmployeeID      string                 `json:"employeeId"`
	Date            string                 `json:"date"`
	Type            worklog.OccurrenceType `json:"type"`
	Minutes         int                    `json:"minutes"`
	JustificationID string                 `json:"justificationId,omitempty"`
	Occurrences     []SummaryItem          `json:"occurrences,omitempty"`
	OccurredAt      time.Time              `json:"occurredAt"`
}

// EscalationEvent is the JSON payload sent via SQS for the escalation queue
type EscalationEvent struct {
	OccurrenceID    string                 `json:"occurrenceId"`
	JustificationID string                 `json:"justificationId"`
	EmployeeID      string                 `json:"employeeId"`
	Date            string                 `json:"date"`
	Type            worklog.OccurrenceType `json:"type"`
	Minutes         int                    `json:"minutes"`
	Hours           decimal.Decimal        `json:"hours"`
	Category        string                 `json:"category,omitempty"`
	Text            string                 `json:"text"`
	OccurredAt      time.Time              `json:"occurredAt"`
}

// MinutesToHours converts minutes to hours rounded to two decimal places.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
