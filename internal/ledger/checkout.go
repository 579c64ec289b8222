package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// CartLine is one position of a checkout cart.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CheckoutResult reports what a checkout booked.
type CheckoutResult struct {
	Transactions []model.Transaction `json:"transactions"`
	CartTotal    decimal.Decimal     `json:"cart_total"`
	Balance      decimal.Decimal     `json:"balance"`
	StaffReceipt bool                `json:"staff_receipt"`
}

// Checkout converts a cart into a balance debit, one transaction row per
// cart line, and per-product stock decrements. The purchase is rejected
// with ErrInsufficientBalance only when the active camp requires a positive
// balance and the balance does not cover the cart total; otherwise the
// balance may go negative.
//
// All writes happen in one database transaction: a failure on any line
// rolls back the whole cart.
func Checkout(ctx context.Context, db *sql.DB, participantID int64, cart []CartLine, actor string) (*CheckoutResult, error) {
	if len(cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for _, line := range cart {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	camp, err := activeCampTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	participant, err := getParticipantTx(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}
	if participant == nil {
		return nil, fmt.Errorf("%w: participant %d", ErrNotFound, participantID)
	}

	// Resolve all products and compute the cart total before any write.
	// The total is the sum of the per-line rounded amounts, so the balance
	// debit always equals the sum of the booked rows.
	products := make([]*model.Product, len(cart))
	lineTotals := make([]decimal.Decimal, len(cart))
	cartTotal := decimal.Zero
	for i, line := range cart {
		product, err := getProductTx(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
		}
		products[i] = product
		lineTotals[i] = round2(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		cartTotal = cartTotal.Add(lineTotals[i])
	}

	if !AllowsNegative(camp) && participant.Balance.LessThan(cartTotal) {
		return nil, fmt.Errorf("%w: balance %s does not cover cart total %s",
			ErrInsufficientBalance, participant.Balance, cartTotal)
	}

	newBalance := participant.Balance.Sub(cartTotal)
	if _, err := tx.ExecContext(ctx,
		`UPDATE participants SET balance = ? WHERE id = ?`,
		newBalance, participant.ID,
	); err != nil {
		return nil, fmt.Errorf("debiting balance: %w", err)
	}

	var txnIDs []int64
	for i, line := range cart {
		product := products[i]
		lineTotal := lineTotals[i]

		productID := product.ID
		id, err := insertTransactionTx(ctx, tx, &model.Transaction{
			ParticipantID:   participant.ID,
			ProductID:       &productID,
			CampID:          camp.ID,
			Quantity:        line.Quantity,
			TotalPrice:      lineTotal,
			ParticipantName: participant.Name,
			ProductName:     product.Name,
			CampName:        camp.Name,
		})
		if err != nil {
			return nil, err
		}
		txnIDs = append(txnIDs, id)

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			line.Quantity, product.ID,
		); err != nil {
			return nil, fmt.Errorf("decrementing stock: %w", err)
		}

		details := fmt.Sprintf("%dx %s for %s (%s)", line.Quantity, product.Name, participant.Name, lineTotal)
		if err := insertAuditTx(ctx, tx, model.AuditCheckout, id, camp.ID, actor, details); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing checkout: %w", err)
	}

	result := &CheckoutResult{
		CartTotal:    cartTotal,
		Balance:      newBalance,
		StaffReceipt: participant.IsStaff,
	}
	for _, id := range txnIDs {
		t, err := store.GetTransaction(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			result.Transactions = append(result.Transactions, *t)
		}
	}
	return result, nil
}
