package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// ParticipantFilter narrows ListParticipants results. Nil pointer fields are
// not applied. Sort must be one of the whitelisted column names.
type ParticipantFilter struct {
	CampID      int64
	IsStaff     *bool
	IsCheckedIn *bool
	BarcodeID   string
	Sort        string
	Limit       int
}

var participantSortColumns = map[string]bool{
	"name":       true,
	"tn_id":      true,
	"balance":    true,
	"created_at": true,
}

// CreateParticipant creates a new participant. An empty barcodeID gets a
// generated one so every participant stays scannable.
func CreateParticipant(ctx context.Context, db *sql.DB, p *model.Participant) (*model.Participant, error) {
	barcode := p.BarcodeID
	if barcode == "" {
		barcode = uuid.NewString()
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO participants (tn_id, name, barcode_id, balance, initial_balance, is_staff, is_checked_in, camp_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TNID, p.Name, barcode, p.Balance, p.InitialBalance, p.IsStaff, p.IsCheckedIn, p.CampID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating participant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting participant id: %w", err)
	}

	return GetParticipant(ctx, db, id)
}

// GetParticipant returns a participant by ID.
func GetParticipant(ctx context.Context, db *sql.DB, id int64) (*model.Participant, error) {
	p := &model.Participant{}
	err := db.QueryRowContext(ctx,
		`SELECT id, tn_id, name, barcode_id, balance, initial_balance, is_staff, is_checked_in, camp_id, created_at, deleted_at
		 FROM participants WHERE id = ?`, id,
	).Scan(&p.ID, &p.TNID, &p.Name, &p.BarcodeID, &p.Balance, &p.InitialBalance,
		&p.IsStaff, &p.IsCheckedIn, &p.CampID, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting participant: %w", err)
	}
	return p, nil
}

// GetParticipantByBarcode returns a non-deleted participant by barcode ID.
func GetParticipantByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Participant, error) {
	p := &model.Participant{}
	err := db.QueryRowContext(ctx,
		`SELECT id, tn_id, name, barcode_id, balance, initial_balance, is_staff, is_checked_in, camp_id, created_at, deleted_at
		 FROM participants WHERE barcode_id = ? AND deleted_at IS NULL`, barcode,
	).Scan(&p.ID, &p.TNID, &p.Name, &p.BarcodeID, &p.Balance, &p.InitialBalance,
		&p.IsStaff, &p.IsCheckedIn, &p.CampID, &p.CreatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting participant by barcode: %w", err)
	}
	return p, nil
}

// ListParticipants returns all non-deleted participants matching the filter.
func ListParticipants(ctx context.Context, db *sql.DB, f ParticipantFilter) ([]model.Participant, error) {
	query := `SELECT id, tn_id, name, barcode_id, balance, initial_balance, is_staff, is_checked_in, camp_id, created_at, deleted_at
	          FROM participants WHERE deleted_at IS NULL`
	var args []any

	if f.CampID > 0 {
		query += ` AND camp_id = ?`
		args = append(args, f.CampID)
	}
	if f.IsStaff != nil {
		query += ` AND is_staff = ?`
		args = append(args, *f.IsStaff)
	}
	if f.IsCheckedIn != nil {
		query += ` AND is_checked_in = ?`
		args = append(args, *f.IsCheckedIn)
	}
	if f.BarcodeID != "" {
		query += ` AND barcode_id = ?`
		args = append(args, f.BarcodeID)
	}

	if f.Sort != "" && participantSortColumns[f.Sort] {
		query += ` ORDER BY ` + f.Sort
	} else {
		query += ` ORDER BY name`
	}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.TNID, &p.Name, &p.BarcodeID, &p.Balance, &p.InitialBalance,
			&p.IsStaff, &p.IsCheckedIn, &p.CampID, &p.CreatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// UpdateParticipant updates a participant's editable fields. Balance and
// check-in state are owned by the ledger and not touched here.
func UpdateParticipant(ctx context.Context, db *sql.DB, id int64, tnID *int64, name, barcodeID string, isStaff bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE participants SET tn_id = ?, name = ?, barcode_id = ?, is_staff = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		tnID, name, barcodeID, isStaff, id,
	)
	if err != nil {
		return fmt.Errorf("updating participant: %w", err)
	}
	return nil
}

// CountParticipantTransactions returns how many ledger rows reference a participant.
func CountParticipantTransactions(ctx context.Context, db *sql.DB, id int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE participant_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting participant transactions: %w", err)
	}
	return count, nil
}

// DeleteParticipant soft-deletes a participant. Fails if any transactions
// reference it, since the ledger history must stay resolvable.
func DeleteParticipant(ctx context.Context, db *sql.DB, id int64) error {
	count, err := CountParticipantTransactions(ctx, db, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("cannot delete participant: %d transactions reference it", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE participants SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}
	return nil
}

// SetParticipantBalance overwrites a participant's balance. Used only for
// manual corrections from the admin UI; ledger operations adjust balances
// inside their own transactions.
func SetParticipantBalance(ctx context.Context, db *sql.DB, id int64, balance decimal.Decimal) error {
	_, err := db.ExecContext(ctx,
		`UPDATE participants SET balance = ? WHERE id = ? AND deleted_at IS NULL`,
		balance, id,
	)
	if err != nil {
		return fmt.Errorf("setting participant balance: %w", err)
	}
	return nil
}
