package worklog

import (
	"fmt"
	"slices"
	"time"
)

// TimeToMinutes converts a wall-clock time to minutes since midnight.
func TimeToMinutes(hour, minute int) int {
	return hour*60 + minute
}

// MinutesSinceMidnight returns the wall-clock minute of t in its own location.
// Seconds are ignored.
func MinutesSinceMidnight(t time.Time) int {
	return TimeToMinutes(t.Hour(), t.Minute())
}

// sortedPunches returns a copy of punches ordered by timestamp. Punches with
// equal timestamps keep their input order.
func sortedPunches(punches []Punch) []Punch {
	sorted := slices.Clone(punches)
	slices.SortStableFunc(sorted, func(a, b Punch) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

// IsPunchesIncomplete reports whether the punches cannot be read as a full
// day: none at all, fewer than four, an odd count, or any sorted pair that is
// not exactly ENTRY followed by EXIT.
func IsPunchesIncomplete(punches []Punch) bool {
	// An empty slice falls under the four-punch minimum.
	if len(punches) < 4 || len(punches)%2 != 0 {
		return true
	}

	sorted := sortedPunches(punches)
	for i := 0; i+1 < len(sorted); i += 2 {
		if sorted[i].Type != PunchEntry || sorted[i+1].Type != PunchExit {
			return true
		}
	}
	return false
}

// ComputeWorkedMinutes sums the ENTRY/EXIT intervals of the day. Elements that
// do not start a valid pair are skipped one at a time.
//
// When lunch is non-nil and the sum reaches 360 minutes, the lunch duration is
// deducted whether or not the punches actually cover the lunch window. This is
// a known approximation for split or irregular shifts and is kept as is.
func ComputeWorkedMinutes(punches []Punch, lunch *LunchPolicy) int {
	if len(punches) < 2 {
		return 0
	}

	sorted := sortedPunches(punches)
	total := 0
	for i := 0; i < len(sorted)-1; {
		current, next := sorted[i], sorted[i+1]
		if current.Type == PunchEntry && next.Type == PunchExit {
			if period := MinutesSinceMidnight(next.Timestamp) - MinutesSinceMidnight(current.Timestamp); period > 0 {
				total += period
			}
			i += 2
			continue
		}
		i++
	}

	if lunch != nil && total >= lunchThresholdMinutes {
		total = max(0, total-lunch.DurationMinutes)
	}
	return total
}

// ComputeLateMinutes applies the total-grace rule to the first entry of the
// day. An entry inside the tolerance window costs nothing; past it, the whole
// delay since the expected start is charged (08:11 with a 10 minute tolerance
// is 11 minutes late, not 1).
func ComputeLateMinutes(entry time.Time, toleranceMinutes, expectedStartHour, expectedStartMinute int) int {
	entryMinutes := MinutesSinceMidnight(entry)
	start := TimeToMinutes(expectedStartHour, expectedStartMinute)

	if entryMinutes <= start {
		return 0
	}
	if entryMinutes <= start+toleranceMinutes {
		return 0
	}
	return entryMinutes - start
}

// ComputeExtraMinutes applies the total-grace rule to overtime: nothing up to
// expected+tolerance, the full excess over expected beyond it.
func ComputeExtraMinutes(workedMinutes, expectedWorkMinutes, toleranceMinutes int) int {
	if workedMinutes <= expectedWorkMinutes {
		return 0
	}
	if workedMinutes <= expectedWorkMinutes+toleranceMinutes {
		return 0
	}
	return workedMinutes - expectedWorkMinutes
}

// ComputeUnderMinutes returns how many minutes short of the expected total the
// day was. There is no tolerance for shortfall.
func ComputeUnderMinutes(workedMinutes, expectedWorkMinutes int) int {
	return max(0, expectedWorkMinutes-workedMinutes)
}

// GenerateOccurrences builds the occurrence list for a day. An incomplete day
// yields exactly one INCOMPLETE occurrence; otherwise LATE, OVER and UNDER are
// emitted in that order for every positive metric.
func GenerateOccurrences(workedMinutes, lateMinutes, extraMinutes, underMinutes int, isIncomplete bool) []Occurrence {
	if isIncomplete {
		return []Occurrence{{Type: OccurrenceIncomplete, Minutes: 0}}
	}

	occurrences := []Occurrence{}
	if lateMinutes > 0 {
		occurrences = append(occurrences, Occurrence{Type: OccurrenceLate, Minutes: lateMinutes})
	}
	if extraMinutes > 0 {
		occurrences = append(occurrences, Occurrence{Type: OccurrenceOver, Minutes: extraMinutes})
	}
	if underMinutes > 0 {
		occurrences = append(occurrences, Occurrence{Type: OccurrenceUnder, Minutes: underMinutes})
	}
	return occurrences
}

// CalculateWorklog computes the full worklog for one employee-day. It never
// fails: malformed input is classified as incomplete.
func CalculateWorklog(punches []Punch, cfg WorkdayConfig) WorklogCalculation {
	if IsPunchesIncomplete(punches) {
		return WorklogCalculation{
			IsIncomplete: true,
			Occurrences:  GenerateOccurrences(0, 0, 0, 0, true),
		}
	}

	sorted := sortedPunches(punches)
	worked := ComputeWorkedMinutes(sorted, cfg.LunchPolicy)

	late := 0
	if i := slices.IndexFunc(sorted, func(p Punch) bool { return p.Type == PunchEntry }); i >= 0 {
		late = ComputeLateMinutes(sorted[i].Timestamp, cfg.ToleranceMinutes, cfg.ExpectedStartHour, cfg.ExpectedStartMinute)
	}

	extra := ComputeExtraMinutes(worked, cfg.ExpectedWorkMinutes, cfg.ToleranceMinutes)
	under := ComputeUnderMinutes(worked, cfg.ExpectedWorkMinutes)

	return WorklogCalculation{
		WorkedMinutes: worked,
		LateMinutes:   late,
		ExtraMinutes:  extra,
		UnderMinutes:  under,
		IsIncomplete:  false,
		Occurrences:   GenerateOccurrences(worked, late, extra, under, false),
	}
}

// FormatMinutes renders a duration for humans: "0min", "45min", "2h", "1h05".
func FormatMinutes(minutes int) string {
	if minutes == 0 {
		return "0min"
	}

	hours, mins := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dmin", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh%02d", hours, mins)
	}
}

// FormatTime renders the wall-clock time of t as HH:MM.
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}
