package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an append-only ledger row. A positive total_price means
// money left the participant's balance (a purchase), a negative one means
// money was added (deposit, top-up, storno refund). ProductID is null on
// special rows such as top-ups and initial deposits.
//
// Participant, product and camp names are snapshots taken at booking time
// and are never refreshed afterwards.
type Transaction struct {
	ID                    int64           `json:"id"`
	ParticipantID         int64           `json:"participant_id"`
	ProductID             *int64          `json:"product_id,omitempty"`
	CampID                int64           `json:"camp_id"`
	Quantity              int             `json:"quantity"`
	TotalPrice            decimal.Decimal `json:"total_price"`
	ParticipantName       string          `json:"participant_name"`
	ProductName           string          `json:"product_name,omitempty"`
	CampName              string          `json:"camp_name"`
	IsStorno              bool            `json:"is_storno"`
	IsCancelled           bool            `json:"is_cancelled"`
	OriginalTransactionID *int64          `json:"original_transaction_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
