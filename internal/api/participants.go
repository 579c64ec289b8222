package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/ledger"
	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// ParticipantsHandler handles participant CRUD endpoints.
type ParticipantsHandler struct {
	DB *sql.DB
}

type createParticipantRequest struct {
	TNID           *int64          `json:"tn_id"`
	Name           string          `json:"name"`
	BarcodeID      string          `json:"barcode_id"`
	IsStaff        bool            `json:"is_staff"`
	CampID         int64           `json:"camp_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type updateParticipantRequest struct {
	TNID      *int64 `json:"tn_id"`
	Name      string `json:"name"`
	BarcodeID string `json:"barcode_id"`
	IsStaff   bool   `json:"is_staff"`
}

type setBalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// List handles GET /api/participants with optional camp_id, is_staff,
// is_checked_in, barcode_id, sort and limit query parameters.
func (h *ParticipantsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.ParticipantFilter

	if v := q.Get("camp_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid camp_id")
			return
		}
		f.CampID = id
	}
	if v := q.Get("is_staff"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid is_staff")
			return
		}
		f.IsStaff = &b
	}
	if v := q.Get("is_checked_in"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid is_checked_in")
			return
		}
		f.IsCheckedIn = &b
	}
	f.BarcodeID = q.Get("barcode_id")
	f.Sort = q.Get("sort")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	participants, err := store.ListParticipants(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list participants", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	if participants == nil {
		participants = []model.Participant{}
	}
	jsonResponse(w, http.StatusOK, participants)
}

// Create handles POST /api/participants. A positive initial balance is
// booked as a start credit through the ledger so the deposit shows up in
// the transaction history and counts toward settlement.
func (h *ParticipantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.InitialBalance.IsNegative() {
		jsonError(w, http.StatusBadRequest, "initial_balance must not be negative")
		return
	}

	campID := req.CampID
	if campID == 0 {
		camp, err := store.GetActiveCamp(r.Context(), h.DB)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if camp == nil {
			jsonError(w, http.StatusBadRequest, "camp_id required when no camp is active")
			return
		}
		campID = camp.ID
	}

	participant, err := store.CreateParticipant(r.Context(), h.DB, &model.Participant{
		TNID:      req.TNID,
		Name:      req.Name,
		BarcodeID: req.BarcodeID,
		IsStaff:   req.IsStaff,
		CampID:    campID,
	})
	if err != nil {
		slog.Error("failed to create participant", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create participant")
		return
	}

	if req.InitialBalance.IsPositive() {
		if _, err := ledger.StartCredit(r.Context(), h.DB, participant.ID, req.InitialBalance, actor(r.Context())); err != nil {
			slog.Error("failed to book start credit", "participant_id", participant.ID, "error", err)
			jsonError(w, http.StatusInternalServerError, "participant created but start credit failed")
			return
		}
		participant, _ = store.GetParticipant(r.Context(), h.DB, participant.ID)
	}

	slog.Info("participant created", "by", actor(r.Context()), "participant", participant.Name)
	jsonResponse(w, http.StatusCreated, participant)
}

// Get handles GET /api/participants/{id}.
func (h *ParticipantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	participant, err := store.GetParticipant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get participant")
		return
	}
	if participant == nil || participant.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "participant not found")
		return
	}

	jsonResponse(w, http.StatusOK, participant)
}

// Update handles PUT /api/participants/{id}. Balance and check-in state
// are owned by the ledger and cannot be set here.
func (h *ParticipantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	var req updateParticipantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateParticipant(r.Context(), h.DB, id, req.TNID, req.Name, req.BarcodeID, req.IsStaff); err != nil {
		slog.Error("failed to update participant", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update participant")
		return
	}

	participant, _ := store.GetParticipant(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, participant)
}

// SetBalance handles PUT /api/participants/{id}/balance, an admin-only
// correction that bypasses the ledger.
func (h *ParticipantsHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	var req setBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	participant, err := store.GetParticipant(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if participant == nil || participant.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "participant not found")
		return
	}

	if err := store.SetParticipantBalance(r.Context(), h.DB, id, req.Balance); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to set balance")
		return
	}

	slog.Warn("balance corrected", "by", actor(r.Context()), "participant", participant.Name,
		"old", participant.Balance, "new", req.Balance)
	participant, _ = store.GetParticipant(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, participant)
}

// Delete handles DELETE /api/participants/{id}. Participants with booked
// transactions cannot be deleted, the history must stay resolvable.
func (h *ParticipantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	if err := store.DeleteParticipant(r.Context(), h.DB, id); err != nil {
		slog.Warn("failed to delete participant", "participant_id", id, "error", err)
		jsonError(w, http.StatusConflict, "cannot delete participant: has transactions or not found")
		return
	}

	slog.Info("participant deleted", "by", actor(r.Context()), "participant_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "participant deleted"})
}
