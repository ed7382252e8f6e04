// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table. Used by tests and local resets.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`
		DROP TABLE IF EXISTS push_token;
		DROP TABLE IF EXISTS notification;
		DROP TABLE IF EXISTS debt;
		DROP TABLE IF EXISTS expense;
		DROP TABLE IF EXISTS board_member;
		DROP TABLE IF EXISTS board;
		DROP TABLE IF EXISTS app_user;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Money columns are TEXT so decimal values round-trip exactly on both
// PostgreSQL and SQLite. Timestamps are always written by the application.
const schema = `
-- Users
CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

-- Boards
CREATE TABLE IF NOT EXISTS board (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL REFERENCES app_user(id),
    created_at TIMESTAMP NOT NULL
);

-- Board Members
CREATE TABLE IF NOT EXISTS board_member (
    board_id TEXT NOT NULL REFERENCES board(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'admin', 'member')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    joined_at TIMESTAMP NOT NULL,
    PRIMARY KEY (board_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_board_member_user_id ON board_member(user_id);

-- Expenses
CREATE TABLE IF NOT EXISTS expense (
    id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL REFERENCES board(id) ON DELETE CASCADE,
    amount TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT 'general',
    description TEXT NOT NULL DEFAULT '',
    paid_by TEXT NOT NULL REFERENCES app_user(id),
    created_by TEXT NOT NULL REFERENCES app_user(id),
    date TIMESTAMP NOT NULL,
    is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
    frequency TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expense_board_id ON expense(board_id);

-- Debts
CREATE TABLE IF NOT EXISTS debt (
    id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL REFERENCES board(id) ON DELETE CASCADE,
    expense_id TEXT REFERENCES expense(id) ON DELETE CASCADE,
    from_user_id TEXT NOT NULL REFERENCES app_user(id),
    to_user_id TEXT NOT NULL REFERENCES app_user(id),
    amount TEXT NOT NULL,
    original_amount TEXT,
    paid_amount TEXT NOT NULL DEFAULT '0',
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    paid_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    CHECK (from_user_id <> to_user_id)
);

CREATE INDEX IF NOT EXISTS idx_debt_board_pair ON debt(board_id, from_user_id, to_user_id);
CREATE INDEX IF NOT EXISTS idx_debt_expense_id ON debt(expense_id);
CREATE INDEX IF NOT EXISTS idx_debt_unpaid ON debt(is_paid, from_user_id, to_user_id);

-- Notifications
CREATE TABLE IF NOT EXISTS notification (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    board_id TEXT REFERENCES board(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    message TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notification_user_id ON notification(user_id, is_read);

-- Push Tokens
CREATE TABLE IF NOT EXISTS push_token (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    platform TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_seen_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_push_token_user_id ON push_token(user_id);
`
