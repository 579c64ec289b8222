package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/zeltlager/lagerkasse/internal/db"
	"github.com/zeltlager/lagerkasse/internal/store"
)

func TestStornoRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, true)
	participant := newParticipant(t, database, camp.ID, "10.00")
	product := newProduct(t, database, "Bratwurst", "4.50", 20)

	result, err := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: product.ID, Quantity: 2}}, "kasse")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	original := result.Transactions[0]
	if !original.TotalPrice.Equal(dec("9.00")) {
		t.Fatalf("expected purchase of 9.00, got %s", original.TotalPrice)
	}

	reversal, err := Storno(ctx, database, original.ID, "kasse")
	if err != nil {
		t.Fatalf("Storno: %v", err)
	}

	if !reversal.IsStorno {
		t.Error("expected reversal row to be marked is_storno")
	}
	if reversal.IsCancelled {
		t.Error("a reversal row must not itself be cancelled")
	}
	if reversal.OriginalTransactionID == nil || *reversal.OriginalTransactionID != original.ID {
		t.Error("expected reversal to back-reference the original")
	}
	if !reversal.TotalPrice.Equal(dec("-9.00")) || reversal.Quantity != -2 {
		t.Errorf("expected -9.00 / -2, got %s / %d", reversal.TotalPrice, reversal.Quantity)
	}

	// Balance and stock return to their pre-checkout values.
	p, _ := store.GetParticipant(ctx, database, participant.ID)
	if !p.Balance.Equal(dec("10.00")) {
		t.Errorf("expected balance restored to 10.00, got %s", p.Balance)
	}
	pr, _ := store.GetProduct(ctx, database, product.ID)
	if pr.Stock != 20 {
		t.Errorf("expected stock restored to 20, got %d", pr.Stock)
	}

	// The original is flagged but never edited otherwise.
	orig, _ := store.GetTransaction(ctx, database, original.ID)
	if !orig.IsCancelled {
		t.Error("expected original to be marked is_cancelled")
	}
	if !orig.TotalPrice.Equal(dec("9.00")) {
		t.Errorf("original total_price must stay 9.00, got %s", orig.TotalPrice)
	}
}

func TestDoubleStornoRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "10.00")
	product := newProduct(t, database, "Cola", "1.50", 10)

	result, _ := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: product.ID, Quantity: 1}}, "kasse")
	original := result.Transactions[0]

	if _, err := Storno(ctx, database, original.ID, "kasse"); err != nil {
		t.Fatalf("first Storno: %v", err)
	}

	_, err := Storno(ctx, database, original.ID, "kasse")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second storno, got %v", err)
	}

	// Exactly one reversal row exists.
	txns, _ := store.ListTransactions(ctx, database, store.TransactionFilter{ParticipantID: participant.ID})
	reversals := 0
	for _, txn := range txns {
		if txn.IsStorno {
			reversals++
		}
	}
	if reversals != 1 {
		t.Errorf("expected exactly 1 reversal row, got %d", reversals)
	}
}

func TestStornoOfStornoRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "10.00")
	product := newProduct(t, database, "Cola", "1.50", 10)

	result, _ := Checkout(ctx, database, participant.ID, []CartLine{{ProductID: product.ID, Quantity: 1}}, "kasse")
	reversal, err := Storno(ctx, database, result.Transactions[0].ID, "kasse")
	if err != nil {
		t.Fatalf("Storno: %v", err)
	}

	if _, err := Storno(ctx, database, reversal.ID, "kasse"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for storno of a storno, got %v", err)
	}
}

func TestStornoOfDepositRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	camp := setupCamp(t, database, false)
	participant := newParticipant(t, database, camp.ID, "0")

	deposit, err := TopUp(ctx, database, participant.ID, dec("20"), "", "kasse")
	if err != nil {
		t.Fatalf("TopUp: %v", err)
	}

	if _, err := Storno(ctx, database, deposit.ID, "kasse"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for storno of a deposit, got %v", err)
	}
}

func TestStornoUnknownTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	setupCamp(t, database, false)

	_, err := Storno(context.Background(), database, 777, "kasse")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
