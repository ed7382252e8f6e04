// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

// Share is one member's obligation to the payer of an expense.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// SplitEven divides amount evenly across members and returns one Share per
// member other than the payer. The payer counts toward the divisor when they
// are in members. No rounding or remainder redistribution is applied.
func SplitEven(amount decimal.Decimal, payerID string, members []models.BoardMember) []Share {
	if len(members) <= 1 {
		return nil
	}
	share := amount.Div(decimal.NewFromInt(int64(len(members))))

	shares := make([]Share, 0, len(members)-1)
	for _, m := range members {
		if m.UserID == payerID {
			continue
		}
		shares = append(shares, Share{UserID: m.UserID, Amount: share})
	}
	return shares
}
