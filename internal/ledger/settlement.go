package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// PurchaseSummary groups a participant's purchases by product for the
// settlement receipt. Deposit rows (no product) are not listed.
type PurchaseSummary struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// Settlement is the net position of a participant at check-out.
// RefundAmount may be negative, meaning the participant owes money; the
// operator reconciles the difference in cash either way.
type Settlement struct {
	ParticipantID  int64             `json:"participant_id"`
	TotalDeposited decimal.Decimal   `json:"total_deposited"`
	TotalSpent     decimal.Decimal   `json:"total_spent"`
	RefundAmount   decimal.Decimal   `json:"refund_amount"`
	Purchases      []PurchaseSummary `json:"purchases"`
}

// SettlementPreview computes the settlement without mutating anything.
func SettlementPreview(ctx context.Context, db *sql.DB, participantID int64) (*Settlement, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	settlement, _, err := settlementTx(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing settlement preview: %w", err)
	}
	return settlement, nil
}

// Settle computes the settlement and closes the participant's ledger:
// is_checked_in becomes false and the balance is zeroed unconditionally,
// regardless of the refund's sign. No transaction rows are touched.
func Settle(ctx context.Context, db *sql.DB, participantID int64, actor string) (*Settlement, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	settlement, campID, err := settlementTx(ctx, tx, participantID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE participants SET is_checked_in = 0, balance = '0' WHERE id = ?`,
		participantID,
	); err != nil {
		return nil, fmt.Errorf("closing participant ledger: %w", err)
	}

	details := fmt.Sprintf("deposited %s, spent %s, refund %s",
		settlement.TotalDeposited, settlement.TotalSpent, settlement.RefundAmount)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, camp_id, actor, details)
		 VALUES (?, 'participant', ?, ?, ?, ?)`,
		model.AuditSettlement, participantID, campID, actor, details,
	); err != nil {
		return nil, fmt.Errorf("appending audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing settlement: %w", err)
	}
	return settlement, nil
}

// settlementTx reads the participant's history within the active camp and
// partitions it: purchases are positive rows that were not cancelled,
// deposits are all negative rows.
func settlementTx(ctx context.Context, tx *sql.Tx, participantID int64) (*Settlement, int64, error) {
	camp, err := activeCampTx(ctx, tx)
	if err != nil {
		return nil, 0, err
	}

	participant, err := getParticipantTx(ctx, tx, participantID)
	if err != nil {
		return nil, 0, err
	}
	if participant == nil {
		return nil, 0, fmt.Errorf("%w: participant %d", ErrNotFound, participantID)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, product_name, quantity, total_price, is_cancelled
		 FROM transactions
		 WHERE participant_id = ? AND camp_id = ?
		 ORDER BY created_at, id`, participantID, camp.ID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("reading transaction history: %w", err)
	}
	defer rows.Close()

	settlement := &Settlement{
		ParticipantID:  participantID,
		TotalDeposited: decimal.Zero,
		TotalSpent:     decimal.Zero,
	}
	grouped := map[string]*PurchaseSummary{}
	var order []string

	for rows.Next() {
		var productID *int64
		var productName sql.NullString
		var quantity int
		var totalPrice decimal.Decimal
		var isCancelled bool
		if err := rows.Scan(&productID, &productName, &quantity, &totalPrice, &isCancelled); err != nil {
			return nil, 0, fmt.Errorf("scanning transaction: %w", err)
		}

		switch {
		case totalPrice.IsPositive() && !isCancelled:
			settlement.TotalSpent = settlement.TotalSpent.Add(totalPrice)
			if productID == nil {
				continue
			}
			key := productName.String
			summary, ok := grouped[key]
			if !ok {
				summary = &PurchaseSummary{ProductName: key, Total: decimal.Zero}
				grouped[key] = summary
				order = append(order, key)
			}
			summary.Quantity += quantity
			summary.Total = summary.Total.Add(totalPrice)
		case totalPrice.IsNegative():
			settlement.TotalDeposited = settlement.TotalDeposited.Add(totalPrice.Abs())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	settlement.RefundAmount = settlement.TotalDeposited.Sub(settlement.TotalSpent)
	for _, key := range order {
		settlement.Purchases = append(settlement.Purchases, *grouped[key])
	}
	return settlement, camp.ID, nil
}

// Prognosis projects a participant's spending over the rest of the camp
// based on their daily average so far.
type Prognosis struct {
	ParticipantID    int64           `json:"participant_id"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	DailyAverage     decimal.Decimal `json:"daily_average"`
	DaysElapsed      int             `json:"days_elapsed"`
	DaysRemaining    int             `json:"days_remaining"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
}

// SpendingPrognosis computes the projection against the active camp's
// start and end dates. Days elapsed is never less than one so the average
// is defined on the first day; without camp dates the projection degrades
// to the plain daily average with zero days remaining.
func SpendingPrognosis(ctx context.Context, db *sql.DB, participantID int64, now time.Time) (*Prognosis, error) {
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

	var startDate, endDate sql.NullString
	if err := tx.QueryRowContext(ctx,
		`SELECT start_date, end_date FROM camps WHERE id = ?`, camp.ID,
	).Scan(&startDate, &endDate); err != nil {
		return nil, fmt.Errorf("reading camp dates: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT total_price FROM transactions
		 WHERE participant_id = ? AND camp_id = ?
		   AND CAST(total_price AS REAL) > 0 AND is_cancelled = 0`,
		participantID, camp.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading purchases: %w", err)
	}
	defer rows.Close()

	spent := decimal.Zero
	for rows.Next() {
		var price decimal.Decimal
		if err := rows.Scan(&price); err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		spent = spent.Add(price)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing prognosis read: %w", err)
	}

	daysElapsed := 1
	daysRemaining := 0
	if startDate.Valid && startDate.String != "" {
		if start, err := time.Parse(model.DateFormat, startDate.String); err == nil {
			daysElapsed = int(now.Sub(start).Hours()/24) + 1
			if daysElapsed < 1 {
				daysElapsed = 1
			}
		}
	}
	if endDate.Valid && endDate.String != "" {
		if end, err := time.Parse(model.DateFormat, endDate.String); err == nil {
			daysRemaining = int(end.Sub(now).Hours() / 24)
			if daysRemaining < 0 {
				daysRemaining = 0
			}
		}
	}

	dailyAverage := spent.Div(decimal.NewFromInt(int64(daysElapsed))).Round(2)
	projected := participant.Balance.Sub(dailyAverage.Mul(decimal.NewFromInt(int64(daysRemaining)))).Round(2)

	return &Prognosis{
		ParticipantID:    participantID,
		TotalSpent:       spent,
		DailyAverage:     dailyAverage,
		DaysElapsed:      daysElapsed,
		DaysRemaining:    daysRemaining,
		ProjectedBalance: projected,
	}, nil
}
