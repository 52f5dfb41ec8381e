package tangerino

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"timesheet.service/internal/core/worklog"
)

const unknownEmployeeName = "Desconhecido"

var (
	employeeListKeys = []string{"employees", "data", "items"}
	punchListKeys    = []string{"punches", "data", "items", "marcacoes"}

	employeeIDKeys   = []string{"id", "employee_id", "employeeId", "codigo"}
	employeeNameKeys = []string{"name", "full_name", "fullName", "nome"}
	departmentKeys   = []string{"department", "departamento"}

	punchEmployeeKeys  = []string{"employee_id", "employeeId", "funcionario_id", "codigo_funcionario", "id"}
	punchTimestampKeys = []string{"timestamp", "date", "punch_time", "data_hora", "dataHora"}
	punchTypeKeys      = []string{"type", "tipo"}

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
)

// decodeList accepts either a bare JSON array or an object wrapping the array
// under the first present key of keys.
func decodeList(body []byte, keys []string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var list []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	for _, k := range keys {
		raw, ok := envelope[k]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode %q: %w", k, err)
		}
		return list, nil
	}
	return nil, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// pick returns the first non-empty scalar among aliases, as a string.
func pick(m map[string]any, aliases []string) string {
	for _, k := range aliases {
		switch v := m[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case bool:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func normalizeEmployee(raw json.RawMessage) (Employee, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Employee{}, fmt.Errorf("decode employee: %w", err)
	}
	e := Employee{
		ExternalID: pick(m, employeeIDKeys),
		Name:       pick(m, employeeNameKeys),
		Email:      pick(m, []string{"email"}),
		Department: pick(m, departmentKeys),
		Raw:        raw,
	}
	if e.ExternalID == "" {
		return Employee{}, fmt.Errorf("employee without id")
	}
	if e.Name == "" {
		e.Name = unknownEmployeeName
	}
	return e, nil
}

func normalizePunch(raw json.RawMessage, loc *time.Location) (Punch, error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Punch{}, fmt.Errorf("decode punch: %w", err)
	}

	p := Punch{
		ExternalEmployeeID: pick(m, punchEmployeeKeys),
		RawType:            pick(m, punchTypeKeys),
		Raw:                raw,
	}
	if p.ExternalEmployeeID == "" {
		return Punch{}, fmt.Errorf("punch without employee id")
	}

	ts := pick(m, punchTimestampKeys)
	p.Timestamp, err = parseTimestamp(ts, loc)
	if err != nil {
		return Punch{}, err
	}
	p.Type = PunchTypeOf(p.RawType)
	return p, nil
}

// parseTimestamp reads provider timestamps. Values without an offset are
// taken as wall-clock time in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("punch without timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// PunchTypeOf maps a provider punch type to EXIT when it mentions an exit in
// English or Portuguese, and to ENTRY otherwise.
func PunchTypeOf(raw string) worklog.PunchType {
	upper := strings.ToUpper(raw)
	for _, marker := range []string{"EXIT", "SAIDA", "SAÍDA"} {
		if strings.Contains(upper, marker) {
			return worklog.PunchExit
		}
	}
	return worklog.PunchEntry
}
