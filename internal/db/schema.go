package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'cashier' CHECK (role IN ('admin', 'cashier')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS camps (
    id                       INTEGER PRIMARY KEY,
    name                     TEXT NOT NULL,
    start_date               TEXT,
    end_date                 TEXT,
    require_positive_balance INTEGER NOT NULL DEFAULT 0,
    is_active                INTEGER NOT NULL DEFAULT 0,
    created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at               DATETIME
);

CREATE TABLE IF NOT EXISTS participants (
    id              INTEGER PRIMARY KEY,
    tn_id           INTEGER,
    name            TEXT NOT NULL,
    barcode_id      TEXT NOT NULL,
    balance         TEXT NOT NULL DEFAULT '0',
    initial_balance TEXT NOT NULL DEFAULT '0',
    is_staff        INTEGER NOT NULL DEFAULT 0,
    is_checked_in   INTEGER NOT NULL DEFAULT 0,
    camp_id         INTEGER NOT NULL REFERENCES camps(id),
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at      DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_barcode_active
    ON participants(barcode_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS products (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    price      TEXT NOT NULL,
    stock      INTEGER NOT NULL DEFAULT 0,
    icon       TEXT,
    barcode    TEXT,
    image      BLOB,
    image_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS transactions (
    id                      INTEGER PRIMARY KEY,
    participant_id          INTEGER NOT NULL REFERENCES participants(id),
    product_id              INTEGER REFERENCES products(id),
    camp_id                 INTEGER NOT NULL REFERENCES camps(id),
    quantity                INTEGER NOT NULL,
    total_price             TEXT NOT NULL,
    participant_name        TEXT NOT NULL,
    product_name            TEXT,
    camp_name               TEXT NOT NULL,
    is_storno               INTEGER NOT NULL DEFAULT 0,
    is_cancelled            INTEGER NOT NULL DEFAULT 0,
    original_transaction_id INTEGER REFERENCES transactions(id),
    created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_participant
    ON transactions(participant_id);
CREATE INDEX IF NOT EXISTS idx_transactions_camp
    ON transactions(camp_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY,
    action      TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER,
    camp_id     INTEGER,
    actor       TEXT,
    details     TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
