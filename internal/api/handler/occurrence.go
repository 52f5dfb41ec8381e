package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"timesheet.service/internal/api/response"
	"timesheet.service/internal/core"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
)

type OccurrenceHandler struct {
	Service OccurrenceService
	Clock   Clock
}

func (h *OccurrenceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := optionalDate(q.Get("date"), h.Clock.Location())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	occurrences, err := h.Service.List(r.Context(), model.OccurrenceFilter{
		Date:       date,
		Status:     model.OccurrenceStatus(q.Get("status")),
		EmployeeID: q.Get("employeeId"),
		Type:       worklog.OccurrenceType(q.Get("type")),
	})
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, occurrences)
}

func (h *OccurrenceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), h.Clock.Location(), h.Clock.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	stats, err := h.Service.Stats(r.Context(), date)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, stats)
}

func (h *OccurrenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, detail)
}

func (h *OccurrenceHandler) Ack(w http.ResponseWriter, r *http.Request) {
	occ, err := h.Service.Ack(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Occurrence acknowledged", occ)
}

type ResolveRequest struct {
	Action model.ResolveAction `json:"action"`
	Note   *string             `json:"note"`
}

func (h *OccurrenceHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	occ, err := h.Service.Resolve(r.Context(), mux.Vars(r)["id"], req.Action, req.Note)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Occurrence updated", occ)
}

type JustifyRequest struct {
	OccurrenceID string                       `json:"occurrenceId"`
	Text         string                       `json:"text"`
	Category     *model.JustificationCategory `json:"category"`
	NotifyHR     bool                         `json:"notifyHR"`
}

func (h *OccurrenceHandler) Justify(w http.ResponseWriter, r *http.Request) {
	var req JustifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	j, err := h.Service.Justify(r.Context(), core.JustifyInput{
		OccurrenceID: req.OccurrenceID,
		Text:         req.Text,
		Category:     req.Category,
		NotifyHR:     req.NotifyHR,
	})
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Created(w, "Justification recorded", j)
}

func (h *OccurrenceHandler) ListJustifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := optionalDate(q.Get("date"), h.Clock.Location())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	list, err := h.Service.ListJustifications(r.Context(), model.JustificationFilter{
		OccurrenceID: q.Get("occurrenceId"),
		EmployeeID:   q.Get("employeeId"),
		Date:         date,
	})
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, list)
}

func (h *OccurrenceHandler) GetJustification(w http.ResponseWriter, r *http.Request) {
	j, err := h.Service.GetJustification(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, j)
}
