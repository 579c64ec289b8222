package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// TransactionsHandler exposes the transaction history. Rows are append-only;
// mutations go through the ledger endpoints.
type TransactionsHandler struct {
	DB *sql.DB
}

// List handles GET /api/transactions with optional participant_id, camp_id,
// sort and limit query parameters.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.TransactionFilter

	if v := q.Get("participant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid participant_id")
			return
		}
		f.ParticipantID = id
	}
	if v := q.Get("camp_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid camp_id")
			return
		}
		f.CampID = id
	}
	f.Sort = q.Get("sort")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	transactions, err := store.ListTransactions(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, transactions)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	transaction, err := store.GetTransaction(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if transaction == nil {
		jsonError(w, http.StatusNotFound, "transaction not found")
		return
	}

	jsonResponse(w, http.StatusOK, transaction)
}
