// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// SplitOutcome counts the debt changes made while splitting one expense.
type SplitOutcome struct {
	DebtsCreated int
	DebtsClosed  int
	DebtsReduced int
	// AmountOffset is the part of the shares cancelled against opposing debts.
	AmountOffset decimal.Decimal
}

// applySplit divides exp across the board's active members and resolves each
// non-payer's share against what the payer already owes them.
func (e *Engine) applySplit(ctx context.Context, tx Tx, exp models.Expense) (SplitOutcome, error) {
	members, err := tx.ActiveMembers(ctx, exp.BoardID)
	if err != nil {
		return SplitOutcome{}, err
	}

	out := SplitOutcome{AmountOffset: decimal.Zero}
	now := e.now()
	for _, s := range SplitEven(exp.Amount, exp.PaidBy, members) {
		existing, err := tx.DebtsBetween(ctx, exp.BoardID, s.UserID, exp.PaidBy)
		if err != nil {
			return SplitOutcome{}, err
		}
		balance := NetBalance(s.UserID, exp.PaidBy, existing)

		res, err := e.resolveShare(ctx, tx, exp, s, balance, existing, now)
		if err != nil {
			return SplitOutcome{}, err
		}
		out.DebtsCreated += res.DebtsCreated
		out.DebtsClosed += res.DebtsClosed
		out.DebtsReduced += res.DebtsReduced
		out.AmountOffset = out.AmountOffset.Add(res.AmountOffset)
	}
	return out, nil
}

// resolveShare nets one member's new obligation against the payer's debts to
// that member. balance is positive when the member already owes the payer.
func (e *Engine) resolveShare(ctx context.Context, tx Tx, exp models.Expense, s Share, balance decimal.Decimal, existing []models.Debt, now time.Time) (SplitOutcome, error) {
	remaining := s.Amount
	out := SplitOutcome{AmountOffset: decimal.Zero}

	if balance.IsNegative() && s.Amount.IsPositive() {
		offset := decimal.Min(balance.Abs(), s.Amount)

		opposing := directed(existing, exp.PaidBy, s.UserID)
		byAmountAsc(opposing)
		t, err := settle(ctx, tx, opposing, offset, now)
		if err != nil {
			return SplitOutcome{}, err
		}
		out.DebtsClosed = t.closed
		out.DebtsReduced = t.reduced
		out.AmountOffset = t.applied
		remaining = s.Amount.Sub(t.applied)

		if remaining.IsZero() {
			slog.Info("perfect offset",
				"expense_id", exp.ID, "member", s.UserID, "payer", exp.PaidBy, "amount", t.applied.String())
		} else {
			slog.Info("partial offset",
				"expense_id", exp.ID, "member", s.UserID, "payer", exp.PaidBy,
				"offset", t.applied.String(), "remaining", remaining.String())
		}
	}

	if !remaining.IsPositive() {
		return out, nil
	}

	expenseID := exp.ID
	d, err := models.NewDebt(exp.BoardID, &expenseID, s.UserID, exp.PaidBy, remaining)
	if err != nil {
		return SplitOutcome{}, err
	}
	d.ID = e.newID()
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := tx.InsertDebt(ctx, d); err != nil {
		return SplitOutcome{}, err
	}
	out.DebtsCreated++
	return out, nil
}
