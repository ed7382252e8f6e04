// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger computes who owes whom inside a board and keeps the debt
table consistent.

# Engine

An Engine wraps a Store. Every operation runs in one Store.WithinTx call and
either commits all of its debt changes or none of them:

	eng := ledger.New(store.New(conn))
	res, err := eng.CreateExpense(ctx, ledger.ExpenseInput{...})

# Splitting and Offsetting

CreateExpense splits the amount evenly over the board's active members
(SplitEven). For each non-payer the current balance with the payer is taken
from NetBalance. When the payer already owes that member, the new share is
netted against those debts, smallest amount first; only the remainder becomes
a new debt. Otherwise a new debt is created for the whole share.

# Payments and Auto-Offset

ProcessPartialPayment applies a payment oldest debt first and reports how
many debts were closed or reduced. AutoOffset cancels reciprocal debts
between a user and each counterparty per board.

# Errors

Operations return *Error with a Kind:

	KindValidation  bad input or board access, nothing read or written
	KindNotFound    unknown user, expense or debt
	KindConflict    expense has settled debts, debt already closed
	KindTransaction store failure, transaction rolled back

Concurrent requests touching the same pair of users are not serialised; two
requests can read the same balance before either commits.
*/
package ledger
