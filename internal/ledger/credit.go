package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
	"github.com/zeltlager/lagerkasse/internal/store"
)

// TopUp credits amount to the participant's balance and books one deposit
// row with a negative total_price and no product. The label ends up as the
// denormalized product name on the row; empty defaults to LabelTopUp.
func TopUp(ctx context.Context, db *sql.DB, participantID int64, amount decimal.Decimal, label, actor string) (*model.Transaction, error) {
	if label == "" {
		label = LabelTopUp
	}
	return credit(ctx, db, participantID, amount, label, false, actor)
}

// StartCredit books the initial deposit for a newly registered participant.
// Unlike a plain top-up it also raises initial_balance, since the money is
// part of the deposit baseline rather than a later correction.
func StartCredit(ctx context.Context, db *sql.DB, participantID int64, amount decimal.Decimal, actor string) (*model.Transaction, error) {
	return credit(ctx, db, participantID, amount, LabelStartCredit, true, actor)
}

// CheckIn marks the participant as present at camp. A positive amount
// additionally books a check-in credit, raising both balance and
// initial_balance in the same transaction.
func CheckIn(ctx context.Context, db *sql.DB, participantID int64, amount decimal.Decimal, actor string) (*model.Participant, error) {
	amount = round2(amount)
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE participants SET is_checked_in = 1 WHERE id = ?`, participant.ID,
	); err != nil {
		return nil, fmt.Errorf("checking in participant: %w", err)
	}

	if amount.IsPositive() {
		if _, err := creditTx(ctx, tx, participant, camp, amount, LabelCheckInCredit, true, actor, model.AuditCheckIn); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing check-in: %w", err)
	}

	return store.GetParticipant(ctx, db, participantID)
}

// credit applies a single balance credit inside its own transaction.
func credit(ctx context.Context, db *sql.DB, participantID int64, amount decimal.Decimal, label string, bumpInitial bool, actor string) (*model.Transaction, error) {
	amount = round2(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
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

	txnID, err := creditTx(ctx, tx, participant, camp, amount, label, bumpInitial, actor, model.AuditTopUp)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing credit: %w", err)
	}

	return store.GetTransaction(ctx, db, txnID)
}

// creditTx raises the participant's balance, books the deposit row and
// returns its id. total_price is negative: money flowed onto the books.
func creditTx(ctx context.Context, tx *sql.Tx, participant *model.Participant, camp *model.Camp, amount decimal.Decimal, label string, bumpInitial bool, actor, auditAction string) (int64, error) {
	newBalance := participant.Balance.Add(amount)
	if bumpInitial {
		newInitial := participant.InitialBalance.Add(amount)
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET balance = ?, initial_balance = ? WHERE id = ?`,
			newBalance, newInitial, participant.ID,
		); err != nil {
			return 0, fmt.Errorf("crediting balance: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE participants SET balance = ? WHERE id = ?`,
			newBalance, participant.ID,
		); err != nil {
			return 0, fmt.Errorf("crediting balance: %w", err)
		}
	}
	participant.Balance = newBalance

	id, err := insertTransactionTx(ctx, tx, &model.Transaction{
		ParticipantID:   participant.ID,
		CampID:          camp.ID,
		Quantity:        1,
		TotalPrice:      amount.Neg(),
		ParticipantName: participant.Name,
		ProductName:     label,
		CampName:        camp.Name,
	})
	if err != nil {
		return 0, err
	}

	details := fmt.Sprintf("%s %s for %s", label, amount, participant.Name)
	if err := insertAuditTx(ctx, tx, auditAction, id, camp.ID, actor, details); err != nil {
		return 0, err
	}
	return id, nil
}
