package model

import "time"

// AuditEntry records who did what to which entity. Ledger mutations append
// their entry inside the same database transaction as the mutation itself.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	CampID     *int64    `json:"camp_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Audit actions written by the ledger.
const (
	AuditCheckout   = "checkout"
	AuditTopUp      = "topup"
	AuditCheckIn    = "checkin"
	AuditStorno     = "storno"
	AuditSettlement = "settlement"
)
