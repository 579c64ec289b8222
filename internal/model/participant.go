package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Participant represents a camp attendee or staff member holding a prepaid balance.
type Participant struct {
	ID             int64           `json:"id"`
	TNID           *int64          `json:"tn_id,omitempty"`
	Name           string          `json:"name"`
	BarcodeID      string          `json:"barcode_id"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	IsStaff        bool            `json:"is_staff"`
	IsCheckedIn    bool            `json:"is_checked_in"`
	CampID         int64           `json:"camp_id"`
	CreatedAt      time.Time       `json:"created_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}
