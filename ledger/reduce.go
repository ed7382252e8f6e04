// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// reduce settles up to amount of d in place and returns the part consumed.
// A closed debt is never touched. OriginalAmount is backfilled from the
// pre-reduction total on first touch so amount + paid_amount stays equal to it.
func reduce(d *models.Debt, amount decimal.Decimal, now time.Time) (consumed decimal.Decimal, closed bool) {
	if d.IsPaid || !amount.IsPositive() || !d.Amount.IsPositive() {
		return decimal.Zero, false
	}
	if !d.OriginalAmount.Valid {
		d.OriginalAmount = decimal.NewNullDecimal(d.Amount.Add(d.PaidAmount))
	}
	d.UpdatedAt = now

	if amount.GreaterThanOrEqual(d.Amount) {
		consumed = d.Amount
		d.Amount = decimal.Zero
		d.PaidAmount = d.OriginalAmount.Decimal
		d.IsPaid = true
		paidAt := now
		d.PaidAt = &paidAt
		return consumed, true
	}

	d.Amount = d.Amount.Sub(amount)
	d.PaidAmount = d.PaidAmount.Add(amount)
	return amount, false
}

// tally counts what a settlement pass did.
type tally struct {
	closed  int
	reduced int
	applied decimal.Decimal
}

// settle walks debts in order, reducing each until total is used up, and
// persists every touched debt through tx.
func settle(ctx context.Context, tx Tx, debts []models.Debt, total decimal.Decimal, now time.Time) (tally, error) {
	t := tally{applied: decimal.Zero}
	remaining := total
	for i := range debts {
		if !remaining.IsPositive() {
			break
		}
		d := debts[i]
		consumed, closed := reduce(&d, remaining, now)
		if consumed.IsZero() {
			continue
		}
		if err := d.Validate(); err != nil {
			return tally{}, err
		}
		if err := tx.UpdateDebt(ctx, d); err != nil {
			return tally{}, err
		}
		remaining = remaining.Sub(consumed)
		t.applied = t.applied.Add(consumed)
		if closed {
			t.closed++
		} else {
			t.reduced++
		}
	}
	return t, nil
}

// byAmountAsc orders debts smallest first, then oldest, then by id.
func byAmountAsc(debts []models.Debt) {
	sort.SliceStable(debts, func(i, j int) bool {
		if c := debts[i].Amount.Cmp(debts[j].Amount); c != 0 {
			return c < 0
		}
		return olderThan(debts[i], debts[j])
	})
}

// byOldest orders debts by creation time, then by id.
func byOldest(debts []models.Debt) {
	sort.SliceStable(debts, func(i, j int) bool {
		return olderThan(debts[i], debts[j])
	})
}

func olderThan(a, b models.Debt) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
