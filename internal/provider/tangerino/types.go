// Package tangerino is a read-only client for the Tangerino/Solides punch
// clock API. Payloads are normalised here; callers only see Employee and
// Punch values.
package tangerino

import (
	"encoding/json"
	"time"

	"timesheet.service/internal/core/worklog"
)

// Employee as exposed by the provider.
type Employee struct {
	ExternalID string          `json:"externalId"`
	Name       string          `json:"name"`
	Email      string          `json:"email,omitempty"`
	Department string          `json:"department,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// Punch is one clock event. Type is derived from RawType.
type Punch struct {
	ExternalEmployeeID string            `json:"externalEmployeeId"`
	Timestamp          time.Time         `json:"timestamp"`
	Type               worklog.PunchType `json:"type"`
	RawType            string            `json:"rawType,omitempty"`
	Raw                json.RawMessage   `json:"-"`
}
