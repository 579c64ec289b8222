package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// TransactionFilter narrows ListTransactions results.
type TransactionFilter struct {
	ParticipantID int64
	CampID        int64
	Sort          string
	Limit         int
}

var transactionSortColumns = map[string]bool{
	"created_at":  true,
	"total_price": true,
	"id":          true,
}

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*model.Transaction, error) {
	t := &model.Transaction{}
	var productName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, participant_id, product_id, camp_id, quantity, total_price,
		        participant_name, product_name, camp_name,
		        is_storno, is_cancelled, original_transaction_id, created_at
		 FROM transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.ParticipantID, &t.ProductID, &t.CampID, &t.Quantity, &t.TotalPrice,
		&t.ParticipantName, &productName, &t.CampName,
		&t.IsStorno, &t.IsCancelled, &t.OriginalTransactionID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	t.ProductName = productName.String
	return t, nil
}

// ListTransactions returns transactions matching the filter, newest first
// unless another sort column is requested.
func ListTransactions(ctx context.Context, db *sql.DB, f TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT id, participant_id, product_id, camp_id, quantity, total_price,
	                 participant_name, product_name, camp_name,
	                 is_storno, is_cancelled, original_transaction_id, created_at
	          FROM transactions WHERE 1=1`
	var args []any

	if f.ParticipantID > 0 {
		query += ` AND participant_id = ?`
		args = append(args, f.ParticipantID)
	}
	if f.CampID > 0 {
		query += ` AND camp_id = ?`
		args = append(args, f.CampID)
	}

	if f.Sort != "" && transactionSortColumns[f.Sort] {
		query += ` ORDER BY ` + f.Sort + ` DESC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var productName sql.NullString
		if err := rows.Scan(&t.ID, &t.ParticipantID, &t.ProductID, &t.CampID, &t.Quantity, &t.TotalPrice,
			&t.ParticipantName, &productName, &t.CampName,
			&t.IsStorno, &t.IsCancelled, &t.OriginalTransactionID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.ProductName = productName.String
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
