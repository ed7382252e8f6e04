// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on both engines.

# Tables

  - app_user: Users
  - board: Shared households
  - board_member: Membership with role and active flag
  - expense: Costs paid by one member
  - debt: Directed obligations between two members of a board
  - notification: In-app notifications
  - push_token: Device push tokens per user

# Relationships

	board 1──* board_member *──1 app_user
	board 1──* expense
	expense 1──* debt
	board 1──* debt

Money columns (amount, original_amount, paid_amount) are TEXT holding decimal
strings.
*/
package db
