package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/ledger"
)

// LedgerHandler handles the register operations: checkout, top-up,
// check-in, storno, settlement and prognosis.
type LedgerHandler struct {
	DB *sql.DB
}

type checkoutRequest struct {
	ParticipantID int64             `json:"participant_id"`
	Cart          []ledger.CartLine `json:"cart"`
}

type topUpRequest struct {
	ParticipantID int64           `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type checkInRequest struct {
	ParticipantID int64           `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type stornoRequest struct {
	TransactionID int64 `json:"transaction_id"`
}

// ledgerError maps the ledger's sentinel errors to HTTP status codes.
func ledgerError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		jsonError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("ledger operation failed", "operation", operation, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// Checkout handles POST /api/ledger/checkout.
func (h *LedgerHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := ledger.Checkout(r.Context(), h.DB, req.ParticipantID, req.Cart, actor(r.Context()))
	countLedgerOp("checkout", err)
	if err != nil {
		ledgerError(w, "checkout", err)
		return
	}

	slog.Info("checkout booked", "by", actor(r.Context()),
		"participant_id", req.ParticipantID, "total", result.CartTotal, "lines", len(result.Transactions))
	jsonResponse(w, http.StatusCreated, result)
}

// TopUp handles POST /api/ledger/topup.
func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transaction, err := ledger.TopUp(r.Context(), h.DB, req.ParticipantID, req.Amount, "", actor(r.Context()))
	countLedgerOp("topup", err)
	if err != nil {
		ledgerError(w, "topup", err)
		return
	}

	slog.Info("top-up booked", "by", actor(r.Context()),
		"participant_id", req.ParticipantID, "amount", req.Amount)
	jsonResponse(w, http.StatusCreated, transaction)
}

// CheckIn handles POST /api/ledger/checkin. An amount of zero checks in
// without a deposit.
func (h *LedgerHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	participant, err := ledger.CheckIn(r.Context(), h.DB, req.ParticipantID, req.Amount, actor(r.Context()))
	countLedgerOp("checkin", err)
	if err != nil {
		ledgerError(w, "checkin", err)
		return
	}

	slog.Info("participant checked in", "by", actor(r.Context()),
		"participant", participant.Name, "amount", req.Amount)
	jsonResponse(w, http.StatusOK, participant)
}

// Storno handles POST /api/ledger/storno.
func (h *LedgerHandler) Storno(w http.ResponseWriter, r *http.Request) {
	var req stornoRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reversal, err := ledger.Storno(r.Context(), h.DB, req.TransactionID, actor(r.Context()))
	countLedgerOp("storno", err)
	if err != nil {
		ledgerError(w, "storno", err)
		return
	}

	slog.Info("transaction reversed", "by", actor(r.Context()),
		"original_id", req.TransactionID, "reversal_id", reversal.ID)
	jsonResponse(w, http.StatusCreated, reversal)
}

// SettlementPreview handles GET /api/ledger/settlement/{participantID}.
func (h *LedgerHandler) SettlementPreview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("participantID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	settlement, err := ledger.SettlementPreview(r.Context(), h.DB, id)
	if err != nil {
		ledgerError(w, "settlement preview", err)
		return
	}

	jsonResponse(w, http.StatusOK, settlement)
}

// Settle handles POST /api/ledger/settlement/{participantID}. The
// participant is checked out and the balance zeroed.
func (h *LedgerHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("participantID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	settlement, err := ledger.Settle(r.Context(), h.DB, id, actor(r.Context()))
	countLedgerOp("settlement", err)
	if err != nil {
		ledgerError(w, "settlement", err)
		return
	}

	slog.Info("participant settled", "by", actor(r.Context()),
		"participant_id", id, "refund", settlement.RefundAmount)
	jsonResponse(w, http.StatusOK, settlement)
}

// Prognosis handles GET /api/ledger/prognosis/{participantID}.
func (h *LedgerHandler) Prognosis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("participantID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	prognosis, err := ledger.SpendingPrognosis(r.Context(), h.DB, id, time.Now())
	if err != nil {
		ledgerError(w, "prognosis", err)
		return
	}

	jsonResponse(w, http.StatusOK, prognosis)
}
