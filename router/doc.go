// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the splitboard API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics   - Prometheus exposition (when enabled)

Users and boards:

	POST   /api/users                          - Register user
	GET    /api/users/{id}                     - Get user
	POST   /api/boards                         - Create board (caller is owner)
	GET    /api/boards                         - Caller's boards
	GET    /api/boards/{id}/members            - List members
	POST   /api/boards/{id}/members            - Add member (owner/admin)
	DELETE /api/boards/{id}/members/{userID}   - Deactivate member

Expenses:

	GET    /api/boards/{id}/expenses - List expenses
	POST   /api/boards/{id}/expenses - Create, split and offset
	PUT    /api/expenses/{id}        - Update (409 if debts settled)
	DELETE /api/expenses/{id}        - Delete (400 if debts settled)

Debts:

	GET  /api/boards/{id}/debts                - List debts (?include_paid=true)
	GET  /api/debts/balances                   - Net balance per counterparty
	POST /api/debts/process-partial-payment    - Apply a payment oldest first
	POST /api/debts/auto-offset                - Cancel reciprocal debts
	POST /api/debts/{id}/mark-paid             - Close a debt (creditor only)

Notifications:

	GET    /api/notifications            - Caller's notifications
	POST   /api/notifications/{id}/read  - Mark read
	POST   /api/push-tokens              - Register device token
	DELETE /api/push-tokens/{token}      - Remove device token

# Handler Initialization

The router builds the ledger engine on a store over the database and wires
it into the handlers that mutate debts:

	engine := ledger.New(store.New(db))
	notifier := notify.NewSQLDispatcher(db)
	expenseHandler := handlers.NewExpenseHandler(db, cfg, engine, notifier)

All handlers receive the database connection and configuration.
*/
package router
