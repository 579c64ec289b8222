package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/zeltlager/lagerkasse/internal/db"
)

func seedTransactions(t *testing.T, database *sql.DB) (campA, campB, participant int64) {
	t.Helper()
	ctx := context.Background()

	a := testCamp(t, database)
	b, _ := CreateCamp(ctx, database, "Herbstlager", "", "", false)

	res, err := database.ExecContext(ctx,
		`INSERT INTO participants (name, barcode_id, camp_id) VALUES ('Mia', 'WB-1', ?)`, a.ID)
	if err != nil {
		t.Fatalf("inserting participant: %v", err)
	}
	pid, _ := res.LastInsertId()

	rows := []struct {
		campID int64
		price  string
	}{
		{a.ID, "3.00"},
		{a.ID, "-20.00"},
		{b.ID, "5.00"},
	}
	for _, r := range rows {
		if _, err := database.ExecContext(ctx,
			`INSERT INTO transactions (participant_id, camp_id, quantity, total_price, participant_name, camp_name)
			 VALUES (?, ?, 1, ?, 'Mia', 'Lager')`, pid, r.campID, r.price); err != nil {
			t.Fatalf("inserting transaction: %v", err)
		}
	}
	return a.ID, b.ID, pid
}

func TestListTransactionsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	campA, campB, participant := seedTransactions(t, database)

	all, err := ListTransactions(ctx, database, TransactionFilter{ParticipantID: participant})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rows, got %d", len(all))
	}

	inA, _ := ListTransactions(ctx, database, TransactionFilter{CampID: campA})
	if len(inA) != 2 {
		t.Errorf("expected 2 rows in camp A, got %d", len(inA))
	}
	inB, _ := ListTransactions(ctx, database, TransactionFilter{CampID: campB})
	if len(inB) != 1 {
		t.Errorf("expected 1 row in camp B, got %d", len(inB))
	}

	limited, _ := ListTransactions(ctx, database, TransactionFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("expected limit 2 to apply, got %d", len(limited))
	}
}

func TestListTransactionsSortWhitelist(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedTransactions(t, database)

	// An unknown sort column falls back to the default ordering instead of
	// being interpolated into the query.
	rows, err := ListTransactions(ctx, database, TransactionFilter{Sort: "1; DROP TABLE transactions"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}

	byID, err := ListTransactions(ctx, database, TransactionFilter{Sort: "id"})
	if err != nil {
		t.Fatalf("ListTransactions sort=id: %v", err)
	}
	if len(byID) != 3 || byID[0].ID < byID[1].ID {
		t.Errorf("expected descending id order, got %v", byID)
	}
}
