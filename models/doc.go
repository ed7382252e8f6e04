// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Typed value objects for the ledger:

  - User, Board, BoardMember: who shares a household and with which role
  - Expense: a cost paid by one member (validated by NewExpense)
  - Debt: a directed obligation inside one board (validated by NewDebt)
  - Notification, PushToken: in-app notification rows and device tokens

All money is decimal.Decimal and is serialized as a JSON string.

# Debt Lifecycle

	open → partially_reduced → closed

A debt may go from open straight to closed. Nothing leaves closed.
Debt.State derives the state from amount, paid_amount and is_paid.

# Request Types

  - CreateUserRequest, CreateBoardRequest, AddMemberRequest
  - CreateExpenseRequest, UpdateExpenseRequest (nil fields unchanged)
  - PartialPaymentRequest: from_user_id, payment_amount, board_ids
  - AutoOffsetRequest: board_ids
  - RegisterPushTokenRequest: token, platform

# Response Types

  - CreateExpenseResponse: expense plus debt counts
  - PartialPaymentResponse: debts_closed, debts_updated, total_processed
  - AutoOffsetResponse: offsets_processed, total_amount_offset, details
  - BalancesResponse: per-counterparty net balance
  - ErrorResponse: error, message

# Constants

Roles:

	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"

Platforms:

	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
*/
package models
