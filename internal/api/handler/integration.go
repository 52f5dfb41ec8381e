package handler

import (
	"net/http"

	"timesheet.service/internal/api/response"
)

type IntegrationHandler struct {
	Service SyncService
	Clock   Clock
}

type SyncRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Sync pulls employees and punches for the range and closes each day. Both
// dates default to today.
func (h *IntegrationHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loc, today := h.Clock.Location(), h.Clock.Today()

	start, err := parseDate(req.StartDate, loc, today)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	end, err := parseDate(req.EndDate, loc, start)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	result, err := h.Service.FullSync(r.Context(), start, end)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Sync finished", result)
}

func (h *IntegrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.Service.Status(r.Context()))
}
