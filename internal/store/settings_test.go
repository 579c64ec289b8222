package store

import (
	"context"
	"testing"

	"github.com/zeltlager/lagerkasse/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 == "" {
		t.Fatal("expected non-empty secret")
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestActiveCamp(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// No active camp yet.
	camp, err := GetActiveCamp(ctx, database)
	if err != nil {
		t.Fatalf("GetActiveCamp: %v", err)
	}
	if camp != nil {
		t.Fatalf("expected no active camp, got %v", camp)
	}

	first, _ := CreateCamp(ctx, database, "Sommerlager", "2026-08-01", "2026-08-14", false)
	second, _ := CreateCamp(ctx, database, "Herbstlager", "2026-10-01", "2026-10-07", true)

	if err := SetActiveCamp(ctx, database, first.ID); err != nil {
		t.Fatalf("SetActiveCamp: %v", err)
	}
	camp, _ = GetActiveCamp(ctx, database)
	if camp == nil || camp.ID != first.ID {
		t.Fatalf("expected camp %d active, got %v", first.ID, camp)
	}
	if !camp.IsActive {
		t.Error("expected is_active flag set")
	}

	// Switching moves both the setting and the flags.
	if err := SetActiveCamp(ctx, database, second.ID); err != nil {
		t.Fatalf("SetActiveCamp: %v", err)
	}
	camp, _ = GetActiveCamp(ctx, database)
	if camp == nil || camp.ID != second.ID {
		t.Fatalf("expected camp %d active, got %v", second.ID, camp)
	}
	old, _ := GetCamp(ctx, database, first.ID)
	if old.IsActive {
		t.Error("expected previous camp's is_active flag cleared")
	}
}

func TestSetActiveCampUnknown(t *testing.T) {
	database := db.NewTestDB(t)

	if err := SetActiveCamp(context.Background(), database, 99); err == nil {
		t.Error("expected error for unknown camp")
	}
}
