// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"

	"github.com/danielhkuo/splitboard/models"
)

// Store opens units of work. WithinTx runs fn inside one transaction and
// commits only when fn returns nil; otherwise every change fn made is
// rolled back and fn's error is returned.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the persistence surface the engine needs inside a unit of work.
// Lookups of a single row return models.ErrNotFound when it is missing.
type Tx interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetMember(ctx context.Context, boardID, userID string) (models.BoardMember, error)
	ActiveMembers(ctx context.Context, boardID string) ([]models.BoardMember, error)
	ActiveBoardIDs(ctx context.Context, userID string) ([]string, error)

	GetExpense(ctx context.Context, id string) (models.Expense, error)
	InsertExpense(ctx context.Context, e models.Expense) error
	UpdateExpense(ctx context.Context, e models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	GetDebt(ctx context.Context, id string) (models.Debt, error)
	// DebtsBetween returns unpaid debts in either direction between two users in one board.
	DebtsBetween(ctx context.Context, boardID, userA, userB string) ([]models.Debt, error)
	// UnpaidDebts returns unpaid debts from one user to another across boards.
	UnpaidDebts(ctx context.Context, fromUserID, toUserID string, boardIDs []string) ([]models.Debt, error)
	// UnpaidDebtsInvolving returns unpaid debts where userID is either side.
	UnpaidDebtsInvolving(ctx context.Context, userID string, boardIDs []string) ([]models.Debt, error)
	ExpenseDebts(ctx context.Context, expenseID string) ([]models.Debt, error)
	InsertDebt(ctx context.Context, d models.Debt) error
	UpdateDebt(ctx context.Context, d models.Debt) error
	DeleteUnpaidExpenseDebts(ctx context.Context, expenseID string) (int64, error)
}
