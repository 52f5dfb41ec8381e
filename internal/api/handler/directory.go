package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"timesheet.service/internal/api/response"
	"timesheet.service/internal/core/model"
)

type DirectoryHandler struct {
	Service DirectoryService
	Clock   Clock
}

func (h *DirectoryHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Service.Ping(ctx); err != nil {
		response.ServiceUnavailable(w, "Database unreachable")
		return
	}
	response.SuccessWithMessage(w, "Service is operational.", map[string]string{"status": "ok"})
}

func (h *DirectoryHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	employees, err := h.Service.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, employees)
}

func (h *DirectoryHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, emp)
}

func (h *DirectoryHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req model.EmployeeUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	emp, err := h.Service.UpdateEmployee(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Employee updated", emp)
}

func (h *DirectoryHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.Service.ListSectors(r.Context())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, sectors)
}

type CreateSectorRequest struct {
	Name              string `json:"name"`
	ManagerChatUserID string `json:"managerChatUserId"`
}

func (h *DirectoryHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var req CreateSectorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sector, err := h.Service.CreateSector(r.Context(), req.Name, req.ManagerChatUserID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Created(w, "Sector created", sector)
}

func (h *DirectoryHandler) UpdateSector(w http.ResponseWriter, r *http.Request) {
	var req model.SectorUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	sector, err := h.Service.UpdateSector(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "Sector updated", sector)
}

func (h *DirectoryHandler) DashboardKPIs(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), h.Clock.Location(), h.Clock.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	kpis, err := h.Service.DashboardKPIs(r.Context(), date)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, kpis)
}
