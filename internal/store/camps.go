package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// CreateCamp creates a new camp.
func CreateCamp(ctx context.Context, db *sql.DB, name, startDate, endDate string, requirePositiveBalance bool) (*model.Camp, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO camps (name, start_date, end_date, require_positive_balance) VALUES (?, ?, ?, ?)`,
		name, startDate, endDate, requirePositiveBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("creating camp: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting camp id: %w", err)
	}

	return GetCamp(ctx, db, id)
}

// GetCamp returns a camp by ID.
func GetCamp(ctx context.Context, db *sql.DB, id int64) (*model.Camp, error) {
	c := &model.Camp{}
	var startDate, endDate sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, require_positive_balance, is_active, created_at, deleted_at
		 FROM camps WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &startDate, &endDate, &c.RequirePositiveBalance, &c.IsActive, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting camp: %w", err)
	}
	c.StartDate = startDate.String
	c.EndDate = endDate.String
	return c, nil
}

// ListCamps returns all non-deleted camps, newest first.
func ListCamps(ctx context.Context, db *sql.DB) ([]model.Camp, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date, require_positive_balance, is_active, created_at, deleted_at
		 FROM camps WHERE deleted_at IS NULL ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing camps: %w", err)
	}
	defer rows.Close()

	var camps []model.Camp
	for rows.Next() {
		var c model.Camp
		var startDate, endDate sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &startDate, &endDate, &c.RequirePositiveBalance, &c.IsActive, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning camp: %w", err)
		}
		c.StartDate = startDate.String
		c.EndDate = endDate.String
		camps = append(camps, c)
	}
	return camps, rows.Err()
}

// UpdateCamp updates a camp's metadata and balance policy.
func UpdateCamp(ctx context.Context, db *sql.DB, id int64, name, startDate, endDate string, requirePositiveBalance bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE camps SET name = ?, start_date = ?, end_date = ?, require_positive_balance = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, startDate, endDate, requirePositiveBalance, id,
	)
	if err != nil {
		return fmt.Errorf("updating camp: %w", err)
	}
	return nil
}

// DeleteCamp soft-deletes a camp. Fails if the camp is currently active.
func DeleteCamp(ctx context.Context, db *sql.DB, id int64) error {
	active, err := GetActiveCamp(ctx, db)
	if err != nil {
		return err
	}
	if active != nil && active.ID == id {
		return fmt.Errorf("cannot delete the active camp")
	}

	_, err = db.ExecContext(ctx,
		`UPDATE camps SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting camp: %w", err)
	}
	return nil
}
