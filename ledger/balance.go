// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// NetBalance returns what a owes b minus what b owes a, counting only unpaid
// debts between the two. Positive means a net-owes b, negative means b
// net-owes a. Debts involving anyone else are ignored.
func NetBalance(a, b string, debts []models.Debt) decimal.Decimal {
	net := decimal.Zero
	for _, d := range debts {
		if d.IsPaid {
			continue
		}
		switch {
		case d.FromUserID == a && d.ToUserID == b:
			net = net.Add(d.Amount)
		case d.FromUserID == b && d.ToUserID == a:
			net = net.Sub(d.Amount)
		}
	}
	return net
}

// sumAmounts totals the outstanding amount of debts.
func sumAmounts(debts []models.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.Amount)
	}
	return total
}

// directed returns the unpaid debts running from one user to another.
func directed(debts []models.Debt, from, to string) []models.Debt {
	var out []models.Debt
	for _, d := range debts {
		if !d.IsPaid && d.FromUserID == from && d.ToUserID == to {
			out = append(out, d)
		}
	}
	return out
}
