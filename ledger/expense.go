// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// ExpenseInput describes a new expense. ActorID is the authenticated user.
type ExpenseInput struct {
	BoardID     string
	ActorID     string
	PaidBy      string
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
	IsRecurring bool
	Frequency   string
	Tags        []string
}

// ExpenseResult is the persisted expense plus the debt changes it caused.
type ExpenseResult struct {
	Expense models.Expense
	SplitOutcome
}

// CreateExpense persists an expense and splits it across the board's active
// members, offsetting against existing opposite-direction debts.
func (e *Engine) CreateExpense(ctx context.Context, in ExpenseInput) (ExpenseResult, error) {
	const op = "create_expense"

	payer := in.PaidBy
	if payer == "" {
		payer = in.ActorID
	}
	exp, err := models.NewExpense(in.BoardID, in.Amount, payer, in.ActorID)
	if err != nil {
		return ExpenseResult{}, validationErr(op, err.Error())
	}
	if in.Category != "" {
		exp.Category = in.Category
	}
	exp.Description = in.Description
	exp.IsRecurring = in.IsRecurring
	exp.Frequency = in.Frequency
	if in.Tags != nil {
		exp.Tags = in.Tags
	}
	if err := exp.Validate(); err != nil {
		return ExpenseResult{}, validationErr(op, err.Error())
	}

	var res ExpenseResult
	err = e.run(ctx, op, func(tx Tx) error {
		if _, err := requireActiveMember(ctx, tx, op, exp.BoardID, exp.CreatedBy); err != nil {
			return err
		}
		if _, err := requireActiveMember(ctx, tx, op, exp.BoardID, exp.PaidBy); err != nil {
			return err
		}

		now := e.now()
		exp.ID = e.newID()
		exp.Date = in.Date
		if exp.Date.IsZero() {
			exp.Date = now
		}
		exp.CreatedAt = now
		exp.UpdatedAt = now
		if err := tx.InsertExpense(ctx, exp); err != nil {
			return err
		}

		outcome, err := e.applySplit(ctx, tx, exp)
		if err != nil {
			return err
		}
		res = ExpenseResult{Expense: exp, SplitOutcome: outcome}
		return nil
	})
	if err != nil {
		return ExpenseResult{}, err
	}

	observeSettlement(res.DebtsCreated, res.DebtsClosed, res.DebtsReduced, res.AmountOffset)
	slog.Info("expense created",
		"expense_id", res.Expense.ID, "board_id", res.Expense.BoardID,
		"amount", res.Expense.Amount.String(), "debts_created", res.DebtsCreated,
		"debts_closed", res.DebtsClosed, "debts_reduced", res.DebtsReduced)
	return res, nil
}

// UpdateExpense applies patch to an expense. When the amount or payer
// changes, the expense's unpaid debts are regenerated; this is refused while
// any of its debts carries a settled portion.
func (e *Engine) UpdateExpense(ctx context.Context, actorID, expenseID string, patch models.UpdateExpenseRequest) (ExpenseResult, error) {
	const op = "update_expense"

	var res ExpenseResult
	err := e.run(ctx, op, func(tx Tx) error {
		exp, err := tx.GetExpense(ctx, expenseID)
		if errors.Is(err, models.ErrNotFound) {
			return notFoundErr(op, "expense not found")
		}
		if err != nil {
			return err
		}
		if _, err := requireActiveMember(ctx, tx, op, exp.BoardID, actorID); err != nil {
			return err
		}

		updated := applyPatch(exp, patch)
		if err := updated.Validate(); err != nil {
			return validationErr(op, err.Error())
		}
		updated.UpdatedAt = e.now()

		financial := !updated.Amount.Equal(exp.Amount) || updated.PaidBy != exp.PaidBy
		if !financial {
			res = ExpenseResult{Expense: updated}
			return tx.UpdateExpense(ctx, updated)
		}

		if err := requireUnsettled(ctx, tx, op, exp.ID, "cannot change amount or payer"); err != nil {
			return err
		}
		if _, err := requireActiveMember(ctx, tx, op, updated.BoardID, updated.PaidBy); err != nil {
			return err
		}
		if _, err := tx.DeleteUnpaidExpenseDebts(ctx, exp.ID); err != nil {
			return err
		}
		if err := tx.UpdateExpense(ctx, updated); err != nil {
			return err
		}
		outcome, err := e.applySplit(ctx, tx, updated)
		if err != nil {
			return err
		}
		res = ExpenseResult{Expense: updated, SplitOutcome: outcome}
		return nil
	})
	if err != nil {
		return ExpenseResult{}, err
	}

	observeSettlement(res.DebtsCreated, res.DebtsClosed, res.DebtsReduced, res.AmountOffset)
	slog.Info("expense updated", "expense_id", expenseID, "debts_created", res.DebtsCreated)
	return res, nil
}

// DeleteExpense removes an expense and its unpaid debts. It is refused while
// any of its debts carries a settled portion.
func (e *Engine) DeleteExpense(ctx context.Context, actorID, expenseID string) (models.Expense, error) {
	const op = "delete_expense"

	var deleted models.Expense
	err := e.run(ctx, op, func(tx Tx) error {
		exp, err := tx.GetExpense(ctx, expenseID)
		if errors.Is(err, models.ErrNotFound) {
			return notFoundErr(op, "expense not found")
		}
		if err != nil {
			return err
		}
		if _, err := requireActiveMember(ctx, tx, op, exp.BoardID, actorID); err != nil {
			return err
		}
		if err := requireUnsettled(ctx, tx, op, exp.ID, "cannot delete expense"); err != nil {
			return err
		}
		if _, err := tx.DeleteUnpaidExpenseDebts(ctx, exp.ID); err != nil {
			return err
		}
		if err := tx.DeleteExpense(ctx, exp.ID); err != nil {
			return err
		}
		deleted = exp
		return nil
	})
	if err != nil {
		return models.Expense{}, err
	}

	slog.Info("expense deleted", "expense_id", expenseID, "board_id", deleted.BoardID)
	return deleted, nil
}

// requireUnsettled rejects changes to an expense whose debts were paid or
// partly settled by an offset or payment.
func requireUnsettled(ctx context.Context, tx Tx, op, expenseID, what string) error {
	debts, err := tx.ExpenseDebts(ctx, expenseID)
	if err != nil {
		return err
	}
	for _, d := range debts {
		if d.IsPaid || d.PaidAmount.IsPositive() {
			return conflictErr(op, what+": expense has paid debts")
		}
	}
	return nil
}

func applyPatch(exp models.Expense, p models.UpdateExpenseRequest) models.Expense {
	if p.Amount != nil {
		exp.Amount = *p.Amount
	}
	if p.Category != nil {
		exp.Category = *p.Category
	}
	if p.Description != nil {
		exp.Description = *p.Description
	}
	if p.PaidBy != nil {
		exp.PaidBy = *p.PaidBy
	}
	if p.Date != nil {
		exp.Date = *p.Date
	}
	if p.IsRecurring != nil {
		exp.IsRecurring = *p.IsRecurring
	}
	if p.Frequency != nil {
		exp.Frequency = *p.Frequency
	}
	if p.Tags != nil {
		exp.Tags = p.Tags
	}
	return exp
}
