package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// Storno reverses a live purchase transaction by booking an
// equal-and-opposite compensating row, marking the original cancelled and
// restoring the participant's balance and the product's stock. An original
// can be reversed exactly once: a second attempt, or an attempt on a row
// that is itself a storno or not a purchase, fails with ErrConflict.
func Storno(ctx context.Context, db *sql.DB, transactionID int64, actor string) (*model.Transaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	original := &model.Transaction{}
	var productName sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT id, participant_id, product_id, camp_id, quantity, total_price,
		        participant_name, product_name, camp_name, is_storno, is_cancelled
		 FROM transactions WHERE id = ?`, transactionID,
	).Scan(&original.ID, &original.ParticipantID, &original.ProductID, &original.CampID,
		&original.Quantity, &original.TotalPrice,
		&original.ParticipantName, &productName, &original.CampName,
		&original.IsStorno, &original.IsCancelled)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	original.ProductName = productName.String

	if original.IsCancelled {
		return nil, fmt.Errorf("%w: transaction %d is already reversed", ErrConflict, transactionID)
	}
	if original.IsStorno {
		return nil, fmt.Errorf("%w: transaction %d is itself a reversal", ErrConflict, transactionID)
	}
	if !original.TotalPrice.IsPositive() {
		return nil, fmt.Errorf("%w: only purchases can be reversed", ErrConflict)
	}

	participant, err := getParticipantTx(ctx, tx, original.ParticipantID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, fmt.Errorf("%w: participant %d no longer resolvable", ErrConflict, original.ParticipantID)
	}

	if original.ProductID != nil {
		product, err := getProductTx(ctx, tx, *original.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: product %d no longer resolvable", ErrConflict, *original.ProductID)
		}
	}

	originalID := original.ID
	reversalID, err := insertTransactionTx(ctx, tx, &model.Transaction{
		ParticipantID:         original.ParticipantID,
		ProductID:             original.ProductID,
		CampID:                original.CampID,
		Quantity:              -original.Quantity,
		TotalPrice:            original.TotalPrice.Neg(),
		ParticipantName:       original.ParticipantName,
		ProductName:           original.ProductName,
		CampName:              original.CampName,
		IsStorno:              true,
		OriginalTransactionID: &originalID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET is_cancelled = 1 WHERE id = ?`, original.ID,
	); err != nil {
		return nil, fmt.Errorf("cancelling original transaction: %w", err)
	}

	if original.ProductID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			original.Quantity, *original.ProductID,
		); err != nil {
			return nil, fmt.Errorf("restoring stock: %w", err)
		}
	}

	newBalance := participant.Balance.Add(original.TotalPrice)
	if _, err := tx.ExecContext(ctx,
		`UPDATE participants SET balance = ? WHERE id = ?`,
		newBalance, participant.ID,
	); err != nil {
		return nil, fmt.Errorf("restoring balance: %w", err)
	}

	details := fmt.Sprintf("reversal of transaction %d (%s, %s)", original.ID, original.ProductName, original.TotalPrice)
	if err := insertAuditTx(ctx, tx, model.AuditStorno, reversalID, original.CampID, actor, details); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing storno: %w", err)
	}

	return store.GetTransaction(ctx, db, reversalID)
}
