package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/db"
	"github.com/zeltlager/lagerkasse/internal/model"
)

func TestDashboardStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	camp := testCamp(t, database)

	p, _ := CreateParticipant(ctx, database, &model.Participant{
		Name:        "Mia",
		Balance:     decimal.RequireFromString("2.00"),
		IsCheckedIn: true,
		CampID:      camp.ID,
	})
	CreateProduct(ctx, database, "Cola", decimal.RequireFromString("1.50"), 3, "", "")
	CreateProduct(ctx, database, "Chips", decimal.RequireFromString("2.00"), 50, "", "")

	// One live purchase, one cancelled purchase, one storno row, one deposit.
	rows := []struct {
		price     string
		storno    bool
		cancelled bool
	}{
		{"4.50", false, false},
		{"3.00", false, true},
		{"-3.00", true, false},
		{"-20.00", false, false},
	}
	for _, r := range rows {
		if _, err := database.ExecContext(ctx,
			`INSERT INTO transactions (participant_id, camp_id, quantity, total_price, participant_name, camp_name, is_storno, is_cancelled)
			 VALUES (?, ?, 1, ?, 'Mia', 'Lager', ?, ?)`,
			p.ID, camp.ID, r.price, r.storno, r.cancelled); err != nil {
			t.Fatalf("inserting transaction: %v", err)
		}
	}

	stats, err := GetDashboardStats(ctx, database, camp.ID)
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}

	// Only the live purchase counts as revenue.
	if !stats.RevenueTotal.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("expected revenue 4.50, got %s", stats.RevenueTotal)
	}
	if !stats.RevenueToday.Equal(stats.RevenueTotal) {
		t.Errorf("all rows were booked today, expected today's revenue %s, got %s", stats.RevenueTotal, stats.RevenueToday)
	}
	if stats.TransactionCount != 4 {
		t.Errorf("expected 4 transactions, got %d", stats.TransactionCount)
	}
	if len(stats.LowBalance) != 1 || stats.LowBalance[0].ID != p.ID {
		t.Errorf("expected Mia on the low balance list, got %v", stats.LowBalance)
	}
	if len(stats.LowStock) != 1 || stats.LowStock[0].Name != "Cola" {
		t.Errorf("expected Cola on the low stock list, got %v", stats.LowStock)
	}
}
