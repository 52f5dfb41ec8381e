package handler

import (
	"net/http"

	"timesheet.service/internal/api/response"
	"timesheet.service/internal/core/worklog"
)

type WorklogHandler struct {
	Service WorklogService
}

type CalculateRequest struct {
	Punches []worklog.Punch        `json:"punches"`
	Config  *worklog.WorkdayConfig `json:"config,omitempty"`
}

// CalculateResponse is the calculation plus its durations rendered for people.
type CalculateResponse struct {
	worklog.WorklogCalculation
	Formatted map[string]string `json:"formatted"`
}

// Calculate previews a day without storing anything.
func (h *WorklogHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, p := range req.Punches {
		if p.Timestamp.IsZero() || (p.Type != worklog.PunchEntry && p.Type != worklog.PunchExit) {
			response.BadRequest(w, "Every punch needs a timestamp and a type of ENTRY or EXIT")
			return
		}
	}
	if req.Config != nil && req.Config.ExpectedWorkMinutes <= 0 {
		response.BadRequest(w, "config.expectedWorkMinutes must be positive")
		return
	}

	calc := h.Service.Preview(req.Punches, req.Config)
	response.Success(w, CalculateResponse{
		WorklogCalculation: calc,
		Formatted: map[string]string{
			"worked": worklog.FormatMinutes(calc.WorkedMinutes),
			"late":   worklog.FormatMinutes(calc.LateMinutes),
			"extra":  worklog.FormatMinutes(calc.ExtraMinutes),
			"under":  worklog.FormatMinutes(calc.UnderMinutes),
		},
	})
}

type CloseRequest struct {
	Date       string `json:"date"`
	EmployeeID string `json:"employeeId"`
}

// Close runs the daily close for a date, or for one employee when
// employeeId is given. The date defaults to today.
func (h *WorklogHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req CloseRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	day, err := parseDate(req.Date, h.Service.Location(), h.Service.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	if req.EmployeeID != "" {
		calc, err := h.Service.CloseDay(r.Context(), req.EmployeeID, day)
		if err != nil {
			response.HandleError(w, r, err)
			return
		}
		response.SuccessWithMessage(w, "Worklog closed", calc)
		return
	}

	result, err := h.Service.ProcessDayForAllEmployees(r.Context(), day)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Daily close finished", result)
}
