// Package ledger implements the balance-and-transaction bookkeeping for a
// camp cashier: checkout, top-up, check-in credit, storno (reversal) and
// check-out settlement.
//
// Every mutating operation runs inside a single database transaction, so a
// multi-line cart either applies completely or not at all, and concurrent
// operations on the same participant or product cannot lose updates.
// Transactions rows are append-only; a reversal is booked as a new
// compensating row, never an edit of the original (only the is_cancelled
// flag ever flips).
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// Deposit row labels, kept in German to match the printed receipts.
const (
	LabelTopUp         = "Guthaben-Aufladung"
	LabelStartCredit   = "Startguthaben"
	LabelCheckInCredit = "Einchecken + Guthaben-Aufladung"
)

// AllowsNegative reports whether the camp's balance policy permits a
// participant balance below zero. Debt is allowed unless the camp
// explicitly opts into requiring a positive balance.
func AllowsNegative(camp *model.Camp) bool {
	return !camp.RequirePositiveBalance
}

// activeCampTx resolves the active camp inside a transaction. Returns
// ErrValidation when no camp is active; every ledger operation refuses to
// run without one.
func activeCampTx(ctx context.Context, tx *sql.Tx) (*model.Camp, error) {
	var value string
	err := tx.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'active_camp_id'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active camp", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("querying active camp: %w", err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing active_camp_id %q: %w", value, err)
	}

	c := &model.Camp{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, require_positive_balance FROM camps WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&c.ID, &c.Name, &c.RequirePositiveBalance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active camp", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("getting active camp: %w", err)
	}
	return c, nil
}

// getParticipantTx loads the participant fields the ledger needs.
func getParticipantTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Participant, error) {
	p := &model.Participant{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, balance, initial_balance, is_staff, is_checked_in, camp_id
		 FROM participants WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&p.ID, &p.Name, &p.Balance, &p.InitialBalance, &p.IsStaff, &p.IsCheckedIn, &p.CampID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting participant: %w", err)
	}
	return p, nil
}

// getProductTx loads the product fields the ledger needs.
func getProductTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Product, error) {
	p := &model.Product{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// insertTransactionTx books one ledger row and returns its id.
func insertTransactionTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) (int64, error) {
	var productName any
	if t.ProductName != "" {
		productName = t.ProductName
	}
	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (participant_id, product_id, camp_id, quantity, total_price,
		                           participant_name, product_name, camp_name,
		                           is_storno, is_cancelled, original_transaction_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ParticipantID, t.ProductID, t.CampID, t.Quantity, t.TotalPrice,
		t.ParticipantName, productName, t.CampName,
		t.IsStorno, t.IsCancelled, t.OriginalTransactionID,
	)
	if err != nil {
		return 0, fmt.Errorf("booking transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting transaction id: %w", err)
	}
	return id, nil
}

// insertAuditTx appends an audit row within the ledger transaction.
func insertAuditTx(ctx context.Context, tx *sql.Tx, action string, entityID, campID int64, actor, details string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, camp_id, actor, details)
		 VALUES (?, 'transaction', ?, ?, ?, ?)`,
		action, entityID, campID, actor, details,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// round2 normalizes money amounts to 2 decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
