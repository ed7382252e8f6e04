// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// OffsetResult summarises an auto-offset pass.
type OffsetResult struct {
	OffsetsProcessed  int
	TotalAmountOffset decimal.Decimal
	Details           []models.OffsetDetail
}

// AutoOffset cancels reciprocal debts between userID and each counterparty
// across the given boards (all of the user's boards when empty). For each
// counterparty the smaller direction is closed and the larger one is reduced
// by the same amount, smallest debts first, so only the net remains. Rows
// are settled in place and stay on their own boards.
func (e *Engine) AutoOffset(ctx context.Context, userID string, boardIDs []string) (OffsetResult, error) {
	const op = "auto_offset"

	if userID == "" {
		return OffsetResult{}, validationErr(op, "user id is required")
	}

	res := OffsetResult{TotalAmountOffset: decimal.Zero, Details: []models.OffsetDetail{}}
	var settled tally
	err := e.run(ctx, op, func(tx Tx) error {
		if _, err := requireUser(ctx, tx, op, userID, "user"); err != nil {
			return err
		}
		boards, err := resolveBoards(ctx, tx, op, userID, boardIDs)
		if err != nil {
			return err
		}
		debts, err := tx.UnpaidDebtsInvolving(ctx, userID, boards)
		if err != nil {
			return err
		}

		byCounterparty := make(map[string][]models.Debt)
		for _, d := range debts {
			cp := d.Counterparty(userID)
			byCounterparty[cp] = append(byCounterparty[cp], d)
		}
		counterparties := make([]string, 0, len(byCounterparty))
		for cp := range byCounterparty {
			counterparties = append(counterparties, cp)
		}
		sort.Strings(counterparties)

		now := e.now()
		for _, cp := range counterparties {
			group := byCounterparty[cp]
			owed := directed(group, userID, cp)
			owing := directed(group, cp, userID)
			owedTotal, owingTotal := sumAmounts(owed), sumAmounts(owing)

			if !owedTotal.IsPositive() || !owingTotal.IsPositive() {
				continue
			}
			offset := decimal.Min(owedTotal, owingTotal)

			byAmountAsc(owed)
			byAmountAsc(owing)
			for _, side := range [][]models.Debt{owed, owing} {
				t, err := settle(ctx, tx, side, offset, now)
				if err != nil {
					return err
				}
				settled.closed += t.closed
				settled.reduced += t.reduced
			}

			res.Details = append(res.Details, models.OffsetDetail{
				CounterpartyID:   cp,
				AmountOffset:     offset,
				ResultingBalance: NetBalance(userID, cp, group),
			})
			res.OffsetsProcessed++
			res.TotalAmountOffset = res.TotalAmountOffset.Add(offset)
		}
		return nil
	})
	if err != nil {
		return OffsetResult{}, err
	}

	observeSettlement(0, settled.closed, settled.reduced, res.TotalAmountOffset)
	slog.Info("auto offset completed",
		"user_id", userID, "offsets", res.OffsetsProcessed, "total", res.TotalAmountOffset.String())
	return res, nil
}

// Balances returns the user's net balance with every counterparty they share
// unpaid debts with, summed across the given boards. Positive means the user
// owes the counterparty. A user without boards has no balances.
func (e *Engine) Balances(ctx context.Context, userID string, boardIDs []string) ([]models.CounterpartyBalance, error) {
	const op = "balances"

	out := []models.CounterpartyBalance{}
	err := e.run(ctx, op, func(tx Tx) error {
		boards, err := accessibleBoards(ctx, tx, op, userID, boardIDs)
		if err != nil {
			return err
		}
		debts, err := tx.UnpaidDebtsInvolving(ctx, userID, boards)
		if err != nil {
			return err
		}

		byCounterparty := make(map[string][]models.Debt)
		for _, d := range debts {
			cp := d.Counterparty(userID)
			byCounterparty[cp] = append(byCounterparty[cp], d)
		}
		out = make([]models.CounterpartyBalance, 0, len(byCounterparty))
		for cp, ds := range byCounterparty {
			out = append(out, models.CounterpartyBalance{
				CounterpartyID: cp,
				NetBalance:     NetBalance(userID, cp, ds),
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CounterpartyID < out[j].CounterpartyID })
		return nil
	})
	return out, err
}
