package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeltlager/lagerkasse/internal/model"
)

// AuditFilter narrows ListAuditEntries results.
type AuditFilter struct {
	CampID int64
	Action string
	Limit  int
}

// AppendAuditEntry writes an audit row outside of any ledger transaction.
// Ledger operations write their rows through the same SQL inside their own
// transaction instead.
func AppendAuditEntry(ctx context.Context, db *sql.DB, e *model.AuditEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_type, entity_id, camp_id, actor, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Action, e.EntityType, e.EntityID, e.CampID, e.Actor, e.Details,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns audit rows matching the filter, newest first.
func ListAuditEntries(ctx context.Context, db *sql.DB, f AuditFilter) ([]model.AuditEntry, error) {
	query := `SELECT id, action, entity_type, entity_id, camp_id, actor, details, created_at
	          FROM audit_log WHERE 1=1`
	var args []any

	if f.CampID > 0 {
		query += ` AND camp_id = ?`
		args = append(args, f.CampID)
	}
	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, f.Action)
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var actor, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.CampID, &actor, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Actor = actor.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
