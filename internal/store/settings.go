package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// Settings keys.
const (
	settingJWTSecret    = "jwt_secret"
	settingActiveCampID = "active_camp_id"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	// Try to generate and insert first (safe against races).
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingJWTSecret, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingJWTSecret,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}

// GetActiveCamp returns the camp selected by the active_camp_id setting,
// or nil if no camp is active.
func GetActiveCamp(ctx context.Context, db *sql.DB) (*model.Camp, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingActiveCampID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active_camp_id: %w", err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing active_camp_id %q: %w", value, err)
	}

	camp, err := GetCamp(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if camp == nil || camp.DeletedAt != nil {
		return nil, nil
	}
	return camp, nil
}

// SetActiveCamp makes the given camp the active one, updating both the
// settings record and the is_active flags in a single transaction.
func SetActiveCamp(ctx context.Context, db *sql.DB, campID int64) error {
	camp, err := GetCamp(ctx, db, campID)
	if err != nil {
		return err
	}
	if camp == nil || camp.DeletedAt != nil {
		return fmt.Errorf("camp %d not found", campID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE camps SET is_active = 0 WHERE is_active = 1`); err != nil {
		return fmt.Errorf("clearing active flags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE camps SET is_active = 1 WHERE id = ?`, campID); err != nil {
		return fmt.Errorf("setting active flag: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		settingActiveCampID, strconv.FormatInt(campID, 10),
	); err != nil {
		return fmt.Errorf("storing active_camp_id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing active camp change: %w", err)
	}
	return nil
}
