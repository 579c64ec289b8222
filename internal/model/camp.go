package model

import "time"

// Camp is a time-boxed event instance scoping participants and transactions.
// At most one camp is active at a time, selected via the settings table.
type Camp struct {
	ID                     int64      `json:"id"`
	Name                   string     `json:"name"`
	StartDate              string     `json:"start_date,omitempty"`
	EndDate                string     `json:"end_date,omitempty"`
	RequirePositiveBalance bool       `json:"require_positive_balance"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	DeletedAt              *time.Time `json:"deleted_at,omitempty"`
}

// DateFormat is the wire and storage format for camp dates.
const DateFormat = "2006-01-02"
