// Package worklog turns one employee's punches for one day into worked time,
// deviation metrics and the occurrences they raise.
//
// Everything in this package is a pure function of its arguments: no I/O, no
// logging, no shared state. Callers may run calculations for many employees in
// parallel without coordination.
package worklog

import "time"

// PunchType tells whether a scan opened or closed a work interval.
type PunchType string

const (
	PunchEntry PunchType = "ENTRY"
	PunchExit  PunchType = "EXIT"
)

// Punch is a single clock scan. Timestamps are expected to be already
// localised to the employee's timezone.
type Punch struct {
	Timestamp time.Time `json:"timestamp"`
	Type      PunchType `json:"type"`
}

// LunchPolicy describes the unpaid lunch break. Only DurationMinutes takes
// part in the calculation; the start time is informational.
type LunchPolicy struct {
	StartHour       int `json:"startHour"`
	StartMinute     int `json:"startMinute"`
	DurationMinutes int `json:"durationMinutes"`
}

// WorkdayConfig is the contractual workday the punches are measured against.
// A nil LunchPolicy disables the lunch deduction.
type WorkdayConfig struct {
	ExpectedStartHour   int          `json:"expectedStartHour"`
	ExpectedStartMinute int          `json:"expectedStartMinute"`
	ExpectedEndHour     int          `json:"expectedEndHour"`
	ExpectedEndMinute   int          `json:"expectedEndMinute"`
	ExpectedWorkMinutes int          `json:"expectedWorkMinutes"`
	ToleranceMinutes    int          `json:"toleranceMinutes"`
	LunchPolicy         *LunchPolicy `json:"lunchPolicy,omitempty"`
}

// OccurrenceType classifies a daily deviation.
type OccurrenceType string

const (
	OccurrenceLate       OccurrenceType = "LATE"
	OccurrenceOver       OccurrenceType = "OVER"
	OccurrenceUnder      OccurrenceType = "UNDER"
	OccurrenceIncomplete OccurrenceType = "INCOMPLETE"
)

// Valid reports whether t is one of the known occurrence types.
func (t OccurrenceType) Valid() bool {
	switch t {
	case OccurrenceLate, OccurrenceOver, OccurrenceUnder, OccurrenceIncomplete:
		return true
	}
	return false
}

// Occurrence is a deviation raised by a calculation.
type Occurrence struct {
	Type    OccurrenceType `json:"type"`
	Minutes int            `json:"minutes"`
}

// WorklogCalculation is the result of CalculateWorklog.
type WorklogCalculation struct {
	WorkedMinutes int          `json:"workedMinutes"`
	LateMinutes   int          `json:"lateMinutes"`
	ExtraMinutes  int          `json:"extraMinutes"`
	UnderMinutes  int          `json:"underMinutes"`
	IsIncomplete  bool         `json:"isIncomplete"`
	Occurrences   []Occurrence `json:"occurrences"`
}

const (
	defaultStartHour     = 8
	defaultEndHour       = 18
	defaultExpectedWork  = 480
	defaultTolerance     = 10
	defaultLunchHour     = 12
	defaultLunchDuration = 120

	// lunchThresholdMinutes is the worked total from which the lunch
	// duration is deducted.
	lunchThresholdMinutes = 360
)

// DefaultWorkdayConfig returns the standard 08:00-18:00 day with 480 expected
// minutes, a 10 minute tolerance and a 120 minute lunch at 12:00.
func DefaultWorkdayConfig() WorkdayConfig {
	return WorkdayConfig{
		ExpectedStartHour:   defaultStartHour,
		ExpectedStartMinute: 0,
		ExpectedEndHour:     defaultEndHour,
		ExpectedEndMinute:   0,
		ExpectedWorkMinutes: defaultExpectedWork,
		ToleranceMinutes:    defaultTolerance,
		LunchPolicy: &LunchPolicy{
			StartHour:       defaultLunchHour,
			StartMinute:     0,
			DurationMinutes: defaultLunchDuration,
		},
	}
}
