// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/metrics"
	"github.com/danielhkuo/splitboard/models"
)

// PaymentRequest applies Amount from DebtorID to CreditorID. CreditorID is
// the authenticated caller. An empty BoardIDs means every board the creditor
// is active in.
type PaymentRequest struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
	BoardIDs   []string
}

type PaymentResult struct {
	DebtsClosed    int
	DebtsUpdated   int
	TotalProcessed decimal.Decimal
	BoardIDs       []string
}

// ProcessPartialPayment applies a payment across the debtor's unpaid debts to
// the creditor, oldest first. Anything beyond the outstanding total is not
// applied; TotalProcessed reports what was.
func (e *Engine) ProcessPartialPayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	const op = "process_partial_payment"

	if !req.Amount.IsPositive() {
		return PaymentResult{}, validationErr(op, "payment_amount must be greater than 0")
	}
	if req.DebtorID == "" {
		return PaymentResult{}, validationErr(op, "from_user_id is required")
	}
	if req.DebtorID == req.CreditorID {
		return PaymentResult{}, validationErr(op, "debtor and creditor must differ")
	}

	res := PaymentResult{TotalProcessed: decimal.Zero}
	err := e.run(ctx, op, func(tx Tx) error {
		if _, err := requireUser(ctx, tx, op, req.DebtorID, "debtor"); err != nil {
			return err
		}
		if _, err := requireUser(ctx, tx, op, req.CreditorID, "creditor"); err != nil {
			return err
		}
		boards, err := resolveBoards(ctx, tx, op, req.CreditorID, req.BoardIDs)
		if err != nil {
			return err
		}

		debts, err := tx.UnpaidDebts(ctx, req.DebtorID, req.CreditorID, boards)
		if err != nil {
			return err
		}
		byOldest(debts)

		t, err := settle(ctx, tx, debts, req.Amount, e.now())
		if err != nil {
			return err
		}
		res = PaymentResult{
			DebtsClosed:    t.closed,
			DebtsUpdated:   t.reduced,
			TotalProcessed: t.applied,
			BoardIDs:       boards,
		}
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	metrics.PaymentAmount.Add(res.TotalProcessed.InexactFloat64())
	observeSettlement(0, res.DebtsClosed, res.DebtsUpdated, decimal.Zero)
	slog.Info("partial payment processed",
		"debtor", req.DebtorID, "creditor", req.CreditorID,
		"requested", req.Amount.String(), "applied", res.TotalProcessed.String(),
		"debts_closed", res.DebtsClosed, "debts_updated", res.DebtsUpdated)
	return res, nil
}

// MarkDebtPaid closes a debt in full. Only the creditor may do this.
func (e *Engine) MarkDebtPaid(ctx context.Context, actorID, debtID string) (models.Debt, error) {
	const op = "mark_debt_paid"

	var out models.Debt
	applied := decimal.Zero
	err := e.run(ctx, op, func(tx Tx) error {
		d, err := tx.GetDebt(ctx, debtID)
		if errors.Is(err, models.ErrNotFound) {
			return notFoundErr(op, "debt not found")
		}
		if err != nil {
			return err
		}
		if d.ToUserID != actorID {
			return validationErr(op, "only the creditor can mark a debt as paid")
		}
		if d.IsPaid {
			return conflictErr(op, "debt is already closed")
		}
		if _, err := requireActiveMember(ctx, tx, op, d.BoardID, actorID); err != nil {
			return err
		}

		t, err := settle(ctx, tx, []models.Debt{d}, d.Amount, e.now())
		if err != nil {
			return err
		}
		applied = t.applied
		out, err = tx.GetDebt(ctx, debtID)
		return err
	})
	if err != nil {
		return models.Debt{}, err
	}

	metrics.PaymentAmount.Add(applied.InexactFloat64())
	observeSettlement(0, 1, 0, decimal.Zero)
	slog.Info("debt marked paid", "debt_id", debtID, "creditor", actorID)
	return out, nil
}
