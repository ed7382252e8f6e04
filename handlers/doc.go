// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the splitboard API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - BoardHandler: Users, boards and membership
  - ExpenseHandler: Expense lifecycle (create, update, delete, list)
  - DebtHandler: Debt listing, balances, payments and auto-offset
  - NotificationHandler: In-app notifications
  - PushTokenHandler: Device push token registration

Handlers that change debts also take the ledger engine and a notifier:

	expenseHandler := handlers.NewExpenseHandler(db, cfg, engine, notifier)

# Identity

Every endpoint except POST /api/users requires the X-User-ID header and
answers 401 without it. Board-scoped endpoints answer 404 for an unknown
board and 403 when the caller is not an active member.

# Ledger Errors

Engine failures map to status codes:

	validation   → 400
	not found    → 404
	conflict     → 409 (400 when deleting an expense with settled debts)
	transaction  → 500, nothing was changed

# Notifications

Notifications are dispatched after the ledger transaction commits. A failed
notification is logged and never changes the response.
*/
package handlers
