package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/zeltlager/lagerkasse/internal/db"
	"github.com/zeltlager/lagerkasse/internal/store"
)

func TestSettlementArithmetic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "0")

	if _, err := TopUp(ctx, database, participant.ID, dec("20"), "", "kasse"); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	wurst := newProduct(t, database, "Bratwurst", "7.00", 10)
	cola := newProduct(t, database, "Cola", "5.00", 10)
	if _, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: wurst.ID, Quantity: 1}}, "kasse"); err != nil {
		t.Fatalf("Checkout wurst: %v", err)
	}
	if _, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: cola.ID, Quantity: 1}}, "kasse"); err != nil {
		t.Fatalf("Checkout cola: %v", err)
	}

	preview, err := SettlementPreview(ctx, database, participant.ID)
	if err != nil {
		t.Fatalf("SettlementPreview: %v", err)
	}
	if !preview.TotalDeposited.Equal(dec("20")) {
		t.Errorf("expected deposited 20, got %s", preview.TotalDeposited)
	}
	if !preview.TotalSpent.Equal(dec("12")) {
		t.Errorf("expected spent 12, got %s", preview.TotalSpent)
	}
	if !preview.RefundAmount.Equal(dec("8")) {
		t.Errorf("expected refund 8, got %s", preview.RefundAmount)
	}
	if len(preview.Purchases) != 2 {
		t.Errorf("expected 2 purchase groups, got %d", len(preview.Purchases))
	}

	// Preview must not mutate anything.
	p, _ := store.GetParticipant(ctx, database, participant.ID)
	if !p.IsCheckedIn {
		t.Error("preview must not check the participant out")
	}
	if !p.Balance.Equal(dec("8.00")) {
		t.Errorf("preview must not change balance, got %s", p.Balance)
	}

	settlement, err := Settle(ctx, database, participant.ID, "kasse")
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !settlement.RefundAmount.Equal(preview.RefundAmount) {
		t.Errorf("settle and preview disagree: %s vs %s", settlement.RefundAmount, preview.RefundAmount)
	}

	p, _ = store.GetParticipant(ctx, database, participant.ID)
	if p.IsCheckedIn {
		t.Error("expected participant to be checked out")
	}
	if !p.Balance.IsZero() {
		t.Errorf("expected balance zeroed, got %s", p.Balance)
	}
}

func TestSettlementNegativeRefund(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "0")

	if _, err := TopUp(ctx, database, participant.ID, dec("5"), "", "kasse"); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	cola := newProduct(t, database, "Cola", "8.00", 10)
	if _, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: cola.ID, Quantity: 1}}, "kasse"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	settlement, err := Settle(ctx, database, participant.ID, "kasse")
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// Participant owes money; the ledger is still closed.
	if !settlement.RefundAmount.Equal(dec("-3")) {
		t.Errorf("expected refund -3, got %s", settlement.RefundAmount)
	}

	p, _ := store.GetParticipant(ctx, database, participant.ID)
	if p.IsCheckedIn || !p.Balance.IsZero() {
		t.Error("expected checked-out participant with zero balance")
	}
}

func TestSettlementIgnoresCancelledPurchases(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "0")

	if _, err := TopUp(ctx, database, participant.ID, dec("20"), "", "kasse"); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	cola := newProduct(t, database, "Cola", "5.00", 10)
	result, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: cola.ID, Quantity: 1}}, "kasse")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := Storno(ctx, database, result.Transactions[0].ID, "kasse"); err != nil {
		t.Fatalf("Storno: %v", err)
	}

	preview, err := SettlementPreview(ctx, database, participant.ID)
	if err != nil {
		t.Fatalf("SettlementPreview: %v", err)
	}
	// The cancelled purchase no longer counts as spend; its reversal row is
	// negative and therefore lands on the deposit side.
	if !preview.TotalSpent.IsZero() {
		t.Errorf("expected spent 0 after storno, got %s", preview.TotalSpent)
	}
	if !preview.TotalDeposited.Equal(dec("25")) {
		t.Errorf("expected deposited 25 (20 top-up + 5 reversal), got %s", preview.TotalDeposited)
	}
}

func TestSpendingPrognosis(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "0")

	if _, err := TopUp(ctx, database, participant.ID, dec("40"), "", "kasse"); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	cola := newProduct(t, database, "Cola", "4.00", 50)
	if _, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: cola.ID, Quantity: 3}}, "kasse"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// Day 4 of a camp running 2026-08-01 to 2026-08-14.
	now := time.Date(2026, 8, 4, 12, 0, 0, 0, time.UTC)
	prognosis, err := SpendingPrognosis(ctx, database, participant.ID, now)
	if err != nil {
		t.Fatalf("SpendingPrognosis: %v", err)
	}

	if !prognosis.TotalSpent.Equal(dec("12")) {
		t.Errorf("expected total spent 12, got %s", prognosis.TotalSpent)
	}
	if prognosis.DaysElapsed != 4 {
		t.Errorf("expected 4 days elapsed, got %d", prognosis.DaysElapsed)
	}
	if !prognosis.DailyAverage.Equal(dec("3")) {
		t.Errorf("expected daily average 3, got %s", prognosis.DailyAverage)
	}
	if prognosis.DaysRemaining != 9 {
		t.Errorf("expected 9 days remaining, got %d", prognosis.DaysRemaining)
	}
	// Balance 28 minus 9 days at 3/day.
	if !prognosis.ProjectedBalance.Equal(dec("1")) {
		t.Errorf("expected projected balance 1, got %s", prognosis.ProjectedBalance)
	}
}
