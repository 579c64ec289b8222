package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// AuditHandler exposes the audit trail (admin only).
type AuditHandler struct {
	DB *sql.DB
}

// List handles GET /api/audit with optional camp_id, action and limit
// query parameters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.AuditFilter

	if v := q.Get("camp_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid camp_id")
			return
		}
		f.CampID = id
	}
	f.Action = q.Get("action")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	entries, err := store.ListAuditEntries(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list audit entries", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
