package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// CampsHandler handles camp CRUD and activation endpoints.
type CampsHandler struct {
	DB *sql.DB
}

type campRequest struct {
	Name                   string `json:"name"`
	StartDate              string `json:"start_date"`
	EndDate                string `json:"end_date"`
	RequirePositiveBalance bool   `json:"require_positive_balance"`
}

func (req *campRequest) validate() string {
	if req.Name == "" {
		return "name required"
	}
	if req.StartDate != "" {
		if _, err := time.Parse(model.DateFormat, req.StartDate); err != nil {
			return "start_date must be YYYY-MM-DD"
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse(model.DateFormat, req.EndDate); err != nil {
			return "end_date must be YYYY-MM-DD"
		}
	}
	if req.StartDate != "" && req.EndDate != "" && req.EndDate < req.StartDate {
		return "end_date must not be before start_date"
	}
	return ""
}

// List handles GET /api/camps.
func (h *CampsHandler) List(w http.ResponseWriter, r *http.Request) {
	camps, err := store.ListCamps(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list camps", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list camps")
		return
	}
	if camps == nil {
		camps = []model.Camp{}
	}
	jsonResponse(w, http.StatusOK, camps)
}

// Create handles POST /api/camps.
func (h *CampsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req campRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	camp, err := store.CreateCamp(r.Context(), h.DB, req.Name, req.StartDate, req.EndDate, req.RequirePositiveBalance)
	if err != nil {
		slog.Error("failed to create camp", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create camp")
		return
	}

	slog.Info("camp created", "by", actor(r.Context()), "camp", camp.Name)
	jsonResponse(w, http.StatusCreated, camp)
}

// Get handles GET /api/camps/{id}.
func (h *CampsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid camp id")
		return
	}

	camp, err := store.GetCamp(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get camp")
		return
	}
	if camp == nil || camp.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "camp not found")
		return
	}

	jsonResponse(w, http.StatusOK, camp)
}

// Update handles PUT /api/camps/{id}.
func (h *CampsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid camp id")
		return
	}

	var req campRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	if err := store.UpdateCamp(r.Context(), h.DB, id, req.Name, req.StartDate, req.EndDate, req.RequirePositiveBalance); err != nil {
		slog.Error("failed to update camp", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update camp")
		return
	}

	slog.Info("camp updated", "by", actor(r.Context()), "camp", req.Name)
	camp, _ := store.GetCamp(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, camp)
}

// Delete handles DELETE /api/camps/{id}.
func (h *CampsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid camp id")
		return
	}

	if err := store.DeleteCamp(r.Context(), h.DB, id); err != nil {
		slog.Warn("failed to delete camp", "camp_id", id, "error", err)
		jsonError(w, http.StatusConflict, "cannot delete camp: still active or not found")
		return
	}

	slog.Info("camp deleted", "by", actor(r.Context()), "camp_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "camp deleted"})
}

// Activate handles POST /api/camps/{id}/activate. All ledger operations
// run against the active camp, so switching camps switches the register.
func (h *CampsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid camp id")
		return
	}

	if err := store.SetActiveCamp(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusNotFound, "camp not found")
		return
	}

	slog.Info("camp activated", "by", actor(r.Context()), "camp_id", id)
	camp, _ := store.GetCamp(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, camp)
}
