package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// Dashboard thresholds.
var (
	lowBalanceThreshold = decimal.NewFromInt(5)
	lowStockThreshold   = 5
)

// DashboardStats summarizes the active camp for the operator overview.
type DashboardStats struct {
	RevenueTotal     decimal.Decimal     `json:"revenue_total"`
	RevenueToday     decimal.Decimal     `json:"revenue_today"`
	TransactionCount int                 `json:"transaction_count"`
	LowBalance       []model.Participant `json:"low_balance"`
	LowStock         []model.Product     `json:"low_stock"`
}

// GetDashboardStats computes revenue and attention lists for a camp.
// Revenue counts live purchase rows only: positive total_price, not
// cancelled and not itself a storno row. Sums are computed in Go so the
// decimal amounts stay exact.
func GetDashboardStats(ctx context.Context, db *sql.DB, campID int64) (*DashboardStats, error) {
	stats := &DashboardStats{
		RevenueTotal: decimal.Zero,
		RevenueToday: decimal.Zero,
	}

	rows, err := db.QueryContext(ctx,
		`SELECT total_price, date(created_at) = date('now') AS today
		 FROM transactions
		 WHERE camp_id = ? AND CAST(total_price AS REAL) > 0
		   AND is_cancelled = 0 AND is_storno = 0`, campID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying revenue: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var price decimal.Decimal
		var today bool
		if err := rows.Scan(&price, &today); err != nil {
			return nil, fmt.Errorf("scanning revenue row: %w", err)
		}
		stats.RevenueTotal = stats.RevenueTotal.Add(price)
		if today {
			stats.RevenueToday = stats.RevenueToday.Add(price)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE camp_id = ?`, campID,
	).Scan(&stats.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	checkedIn := true
	participants, err := ListParticipants(ctx, db, ParticipantFilter{CampID: campID, IsCheckedIn: &checkedIn})
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.Balance.LessThanOrEqual(lowBalanceThreshold) {
			stats.LowBalance = append(stats.LowBalance, p)
		}
	}

	products, err := ListProducts(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.Stock <= lowStockThreshold {
			stats.LowStock = append(stats.LowStock, p)
		}
	}

	return stats, nil
}
