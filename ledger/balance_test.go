// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openDebt(id, from, to, amount string, created time.Time) models.Debt {
	d, err := models.NewDebt("board", nil, from, to, dec(amount))
	if err != nil {
		panic(err)
	}
	d.ID = id
	d.CreatedAt = created
	return d
}

func TestNetBalance(t *testing.T) {
	now := time.Now()
	paid := openDebt("p", "a", "b", "100", now)
	paid.Amount = decimal.Zero
	paid.PaidAmount = dec("100")
	paid.IsPaid = true

	tests := []struct {
		name     string
		debts    []models.Debt
		expected string
	}{
		{"no debts", nil, "0"},
		{"a owes b", []models.Debt{openDebt("1", "a", "b", "50", now)}, "50"},
		{"b owes a", []models.Debt{openDebt("1", "b", "a", "30", now)}, "-30"},
		{
			name: "both directions net out",
			debts: []models.Debt{
				openDebt("1", "a", "b", "50", now),
				openDebt("2", "b", "a", "20.25", now),
			},
			expected: "29.75",
		},
		{
			name: "third parties and paid debts ignored",
			debts: []models.Debt{
				openDebt("1", "a", "c", "40", now),
				openDebt("2", "c", "b", "10", now),
				paid,
			},
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NetBalance("a", "b", tt.debts)
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
			// Antisymmetric
			if !NetBalance("b", "a", tt.debts).Equal(got.Neg()) {
				t.Errorf("Expected NetBalance(b, a) = %s", got.Neg())
			}
		})
	}
}

func TestSplitEven(t *testing.T) {
	members := func(ids ...string) []models.BoardMember {
		out := make([]models.BoardMember, len(ids))
		for i, id := range ids {
			out[i] = models.BoardMember{UserID: id, IsActive: true}
		}
		return out
	}

	tests := []struct {
		name     string
		amount   string
		payer    string
		members  []models.BoardMember
		expected map[string]string
	}{
		{"two members", "100", "a", members("a", "b"), map[string]string{"b": "50"}},
		{"three members", "90", "a", members("a", "b", "c"), map[string]string{"b": "30", "c": "30"}},
		{"payer alone", "100", "a", members("a"), map[string]string{}},
		{"payer not a member", "100", "z", members("a", "b"), map[string]string{"a": "50", "b": "50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := SplitEven(dec(tt.amount), tt.payer, tt.members)
			if len(shares) != len(tt.expected) {
				t.Fatalf("Expected %d shares, got %d", len(tt.expected), len(shares))
			}
			for _, s := range shares {
				want, ok := tt.expected[s.UserID]
				if !ok {
					t.Errorf("Unexpected share for %s", s.UserID)
					continue
				}
				if !s.Amount.Equal(dec(want)) {
					t.Errorf("Expected %s to owe %s, got %s", s.UserID, want, s.Amount)
				}
			}
		})
	}

	t.Run("no rounding", func(t *testing.T) {
		shares := SplitEven(dec("100"), "a", members("a", "b", "c"))
		if len(shares) != 2 {
			t.Fatalf("Expected 2 shares, got %d", len(shares))
		}
		// 100/3 keeps decimal precision instead of rounding to cents
		if shares[0].Amount.Equal(shares[0].Amount.Round(2)) {
			t.Errorf("Expected an unrounded share, got %s", shares[0].Amount)
		}
	})
}

func TestReduce(t *testing.T) {
	now := time.Now()

	t.Run("partial", func(t *testing.T) {
		d := openDebt("1", "a", "b", "30", now)
		consumed, closed := reduce(&d, dec("20"), now)
		if closed || !consumed.Equal(dec("20")) {
			t.Fatalf("Expected 20 consumed and open, got %s closed=%v", consumed, closed)
		}
		if !d.Amount.Equal(dec("10")) || !d.PaidAmount.Equal(dec("20")) {
			t.Errorf("Expected 10 outstanding / 20 paid, got %s / %s", d.Amount, d.PaidAmount)
		}
		if d.State() != models.DebtPartiallyReduced {
			t.Errorf("Expected partially reduced state, got %s", d.State())
		}
		if err := d.Validate(); err != nil {
			t.Error(err)
		}
	})

	t.Run("closes and caps at outstanding", func(t *testing.T) {
		d := openDebt("1", "a", "b", "30", now)
		consumed, closed := reduce(&d, dec("45"), now)
		if !closed || !consumed.Equal(dec("30")) {
			t.Fatalf("Expected 30 consumed and closed, got %s closed=%v", consumed, closed)
		}
		if !d.IsPaid || d.PaidAt == nil || !d.Amount.IsZero() || !d.PaidAmount.Equal(dec("30")) {
			t.Errorf("Unexpected closed debt %+v", d)
		}
	})

	t.Run("closed debt untouched", func(t *testing.T) {
		d := openDebt("1", "a", "b", "30", now)
		reduce(&d, dec("30"), now)
		before := d
		consumed, closed := reduce(&d, dec("5"), now.Add(time.Hour))
		if !consumed.IsZero() || closed || !d.UpdatedAt.Equal(before.UpdatedAt) {
			t.Errorf("Expected no change to a closed debt")
		}
	})

	t.Run("backfills original amount", func(t *testing.T) {
		d := openDebt("1", "a", "b", "25", now)
		d.OriginalAmount = decimal.NullDecimal{}
		d.PaidAmount = dec("5")
		reduce(&d, dec("10"), now)
		if !d.OriginalAmount.Valid || !d.OriginalAmount.Decimal.Equal(dec("30")) {
			t.Errorf("Expected original amount 30, got %+v", d.OriginalAmount)
		}
		if err := d.Validate(); err != nil {
			t.Error(err)
		}
	})

	t.Run("zero amount is a no-op", func(t *testing.T) {
		d := openDebt("1", "a", "b", "25", now)
		consumed, _ := reduce(&d, decimal.Zero, now)
		if !consumed.IsZero() || !d.Amount.Equal(dec("25")) {
			t.Error("Expected zero reduction to change nothing")
		}
	})
}

func TestOrdering(t *testing.T) {
	base := time.Now()
	debts := []models.Debt{
		openDebt("c", "a", "b", "40", base),
		openDebt("b", "a", "b", "10", base.Add(2*time.Minute)),
		openDebt("a", "a", "b", "10", base.Add(time.Minute)),
	}

	byAmountAsc(debts)
	if debts[0].ID != "a" || debts[1].ID != "b" || debts[2].ID != "c" {
		t.Errorf("Expected smallest then oldest, got %s %s %s", debts[0].ID, debts[1].ID, debts[2].ID)
	}

	byOldest(debts)
	if debts[0].ID != "c" || debts[1].ID != "a" || debts[2].ID != "b" {
		t.Errorf("Expected oldest first, got %s %s %s", debts[0].ID, debts[1].ID, debts[2].ID)
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := &Error{Kind: KindTransaction, Op: "create_expense", Msg: "transaction rolled back", Err: errors.New("disk full")}

	tests := []struct {
		err      error
		kind     Kind
		contains string
	}{
		{validationErr("op", "bad"), KindValidation, "op: bad"},
		{notFoundErr("op", "missing"), KindNotFound, "op: missing"},
		{conflictErr("op", "paid"), KindConflict, "op: paid"},
		{wrapped, KindTransaction, "create_expense: transaction rolled back: disk full"},
		{errors.New("plain"), KindUnknown, "plain"},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %s, expected %s", tt.err, got, tt.kind)
		}
		if tt.err.Error() != tt.contains {
			t.Errorf("Expected message %q, got %q", tt.contains, tt.err.Error())
		}
	}

	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("Expected Error to unwrap to its cause")
	}
}
