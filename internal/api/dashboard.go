package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/zeltlager/lagerkasse/internal/store"
)

// DashboardHandler serves the operator overview for the active camp.
type DashboardHandler struct {
	DB *sql.DB
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	camp, err := store.GetActiveCamp(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to resolve active camp", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if camp == nil {
		jsonError(w, http.StatusBadRequest, "no active camp")
		return
	}

	stats, err := store.GetDashboardStats(r.Context(), h.DB, camp.ID)
	if err != nil {
		slog.Error("failed to compute dashboard", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"camp":  camp,
		"stats": stats,
	})
}
