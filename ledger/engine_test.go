// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/metrics"
	"github.com/danielhkuo/splitboard/models"
	"github.com/danielhkuo/splitboard/store"
	"github.com/danielhkuo/splitboard/testutil"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances one second per call so rows
// created in sequence have distinct, ordered timestamps.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newEngine(t *testing.T) (*ledger.Engine, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return ledger.New(store.New(db), ledger.WithClock(steppingClock())), db
}

func expense(boardID, payer, amount string) ledger.ExpenseInput {
	return ledger.ExpenseInput{
		BoardID: boardID,
		ActorID: payer,
		PaidBy:  payer,
		Amount:  decimal.RequireFromString(amount),
	}
}

func requireKind(t *testing.T, err error, kind ledger.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	if got := ledger.KindOf(err); got != kind {
		t.Fatalf("Expected %s error, got %s: %v", kind, got, err)
	}
}

func requireConservation(t *testing.T, debts []models.Debt) {
	t.Helper()
	for _, d := range debts {
		if err := d.Validate(); err != nil {
			t.Errorf("Debt %s invalid: %v", d.ID, err)
		}
		if !d.OriginalAmount.Valid {
			t.Errorf("Debt %s has no original amount", d.ID)
		}
	}
}

func TestEvenSplit(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)

	// Two expenses in the same direction never net against each other
	for i := 0; i < 2; i++ {
		res, err := e.CreateExpense(ctx, expense(boardID, alice, "100"))
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if res.DebtsCreated != 1 || res.DebtsClosed != 0 || res.DebtsReduced != 0 {
			t.Fatalf("Expected one new debt, got %+v", res.SplitOutcome)
		}
	}

	debts := testutil.ListTestDebts(t, db, boardID)
	if len(debts) != 2 {
		t.Fatalf("Expected 2 debts, got %d", len(debts))
	}
	for _, d := range debts {
		if d.FromUserID != bob || d.ToUserID != alice || !d.Amount.Equal(decimal.NewFromInt(50)) || d.IsPaid {
			t.Errorf("Unexpected debt %+v", d)
		}
	}
	requireConservation(t, debts)
}

func TestSplitExcludesInactiveMembers(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	carol := testutil.CreateTestUser(t, db, "Carol")
	boardID := testutil.CreateTestBoard(t, db, alice, bob, carol)
	testutil.DeactivateTestMember(t, db, boardID, carol)

	res, err := e.CreateExpense(ctx, expense(boardID, alice, "60"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if res.DebtsCreated != 1 {
		t.Fatalf("Expected 1 debt, got %d", res.DebtsCreated)
	}
	debts := testutil.ListTestDebts(t, db, boardID)
	if debts[0].FromUserID != bob || !debts[0].Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected Bob to owe 30, got %+v", debts[0])
	}
}

func TestSoleMemberExpenseCreatesNoDebts(t *testing.T) {
	e, db := newEngine(t)

	alice := testutil.CreateTestUser(t, db, "Alice")
	boardID := testutil.CreateTestBoard(t, db, alice)

	res, err := e.CreateExpense(context.Background(), expense(boardID, alice, "42"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if res.DebtsCreated != 0 || len(testutil.ListTestDebts(t, db, boardID)) != 0 {
		t.Error("Expected no debts for a single-member board")
	}
}

func TestOffsetOnSplit(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)

	t.Run("partial offset leaves a remainder debt", func(t *testing.T) {
		existing := testutil.CreateTestDebt(t, db, boardID, "", bob, alice, "30", epoch)

		res, err := e.CreateExpense(ctx, expense(boardID, bob, "100"))
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if res.DebtsClosed != 1 || res.DebtsCreated != 1 {
			t.Fatalf("Expected 1 closed and 1 created, got %+v", res.SplitOutcome)
		}

		closed := testutil.GetTestDebt(t, db, existing)
		if !closed.IsPaid || !closed.PaidAmount.Equal(decimal.NewFromInt(30)) {
			t.Errorf("Expected Bob's debt closed, got %+v", closed)
		}

		var remainder models.Debt
		for _, d := range testutil.ListTestDebts(t, db, boardID) {
			if !d.IsPaid {
				remainder = d
			}
		}
		if remainder.FromUserID != alice || !remainder.Amount.Equal(decimal.NewFromInt(20)) {
			t.Errorf("Expected Alice to owe 20, got %+v", remainder)
		}
		if remainder.ExpenseID == nil || *remainder.ExpenseID != res.Expense.ID {
			t.Error("Expected remainder debt linked to the new expense")
		}
	})

	t.Run("perfect offset creates nothing", func(t *testing.T) {
		// Alice owes Bob 20; Alice pays 40 so Bob's share is exactly 20
		res, err := e.CreateExpense(ctx, expense(boardID, alice, "40"))
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if res.DebtsClosed != 1 || res.DebtsCreated != 0 {
			t.Fatalf("Expected perfect offset, got %+v", res.SplitOutcome)
		}
		balances, err := e.Balances(ctx, alice, nil)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("Expected zero balance, got %+v", balances)
		}
	})

	requireConservation(t, testutil.ListTestDebts(t, db, boardID))
}

func TestOffsetReducesSmallestFirst(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)

	large := testutil.CreateTestDebt(t, db, boardID, "", alice, bob, "40", epoch)
	small := testutil.CreateTestDebt(t, db, boardID, "", alice, bob, "10", epoch.Add(time.Hour))

	// Bob's share is 30: the 10 closes, then the 40 drops to 20
	res, err := e.CreateExpense(ctx, expense(boardID, alice, "60"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if res.DebtsClosed != 1 || res.DebtsReduced != 1 || res.DebtsCreated != 0 {
		t.Fatalf("Unexpected outcome %+v", res.SplitOutcome)
	}

	if d := testutil.GetTestDebt(t, db, small); !d.IsPaid {
		t.Error("Expected the smaller debt to close first")
	}
	d := testutil.GetTestDebt(t, db, large)
	if !d.Amount.Equal(decimal.NewFromInt(20)) || !d.PaidAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected 20 outstanding / 20 paid, got %s / %s", d.Amount, d.PaidAmount)
	}
	if d.State() != models.DebtPartiallyReduced {
		t.Errorf("Expected partially reduced, got %s", d.State())
	}
}

func TestProcessPartialPayment(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	x := testutil.CreateTestUser(t, db, "X")
	y := testutil.CreateTestUser(t, db, "Y")
	boardID := testutil.CreateTestBoard(t, db, y, x)

	older := testutil.CreateTestDebt(t, db, boardID, "", x, y, "50", epoch)
	newer := testutil.CreateTestDebt(t, db, boardID, "", x, y, "30", epoch.Add(time.Hour))

	res, err := e.ProcessPartialPayment(ctx, ledger.PaymentRequest{
		DebtorID:   x,
		CreditorID: y,
		Amount:     decimal.NewFromInt(60),
	})
	if err != nil {
		t.Fatalf("ProcessPartialPayment failed: %v", err)
	}
	if res.DebtsClosed != 1 || res.DebtsUpdated != 1 || !res.TotalProcessed.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("Unexpected result %+v", res)
	}
	if len(res.BoardIDs) != 1 || res.BoardIDs[0] != boardID {
		t.Errorf("Expected payment scoped to %s, got %v", boardID, res.BoardIDs)
	}

	if d := testutil.GetTestDebt(t, db, older); !d.IsPaid {
		t.Error("Expected the older debt closed")
	}
	d := testutil.GetTestDebt(t, db, newer)
	if !d.Amount.Equal(decimal.NewFromInt(10)) || !d.PaidAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected 10 outstanding / 20 paid, got %s / %s", d.Amount, d.PaidAmount)
	}
	requireConservation(t, testutil.ListTestDebts(t, db, boardID))

	t.Run("validation", func(t *testing.T) {
		_, err := e.ProcessPartialPayment(ctx, ledger.PaymentRequest{DebtorID: x, CreditorID: y, Amount: decimal.Zero})
		requireKind(t, err, ledger.KindValidation)

		_, err = e.ProcessPartialPayment(ctx, ledger.PaymentRequest{DebtorID: x, CreditorID: y, Amount: decimal.NewFromInt(1), BoardIDs: []string{"other"}})
		requireKind(t, err, ledger.KindValidation)

		_, err = e.ProcessPartialPayment(ctx, ledger.PaymentRequest{DebtorID: "ghost", CreditorID: y, Amount: decimal.NewFromInt(1)})
		requireKind(t, err, ledger.KindNotFound)
	})
}

func TestSettledExpenseProtection(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)

	res, err := e.CreateExpense(ctx, expense(boardID, alice, "100"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	debts := testutil.ListTestDebts(t, db, boardID)
	if _, err := e.MarkDebtPaid(ctx, alice, debts[0].ID); err != nil {
		t.Fatalf("MarkDebtPaid failed: %v", err)
	}

	newAmount := decimal.NewFromInt(200)
	_, err = e.UpdateExpense(ctx, alice, res.Expense.ID, models.UpdateExpenseRequest{Amount: &newAmount})
	requireKind(t, err, ledger.KindConflict)

	_, err = e.UpdateExpense(ctx, alice, res.Expense.ID, models.UpdateExpenseRequest{PaidBy: &bob})
	requireKind(t, err, ledger.KindConflict)

	_, err = e.DeleteExpense(ctx, alice, res.Expense.ID)
	requireKind(t, err, ledger.KindConflict)

	after := testutil.ListTestDebts(t, db, boardID)
	if len(after) != 1 || !after[0].IsPaid {
		t.Errorf("Expected the paid debt untouched, got %+v", after)
	}
	var amount decimal.Decimal
	if err := db.QueryRow(`SELECT amount FROM expense WHERE id = $1`, res.Expense.ID).Scan(&amount); err != nil {
		t.Fatalf("Expense should still exist: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected amount 100, got %s", amount)
	}

	// Non-financial edits remain allowed
	desc := "Corrected description"
	updated, err := e.UpdateExpense(ctx, alice, res.Expense.ID, models.UpdateExpenseRequest{Description: &desc})
	if err != nil {
		t.Fatalf("Description update failed: %v", err)
	}
	if updated.Expense.Description != desc {
		t.Errorf("Expected description %q, got %q", desc, updated.Expense.Description)
	}
}

func TestDeleteKeepsConsumedOffset(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)
	existing := testutil.CreateTestDebt(t, db, boardID, "", bob, alice, "30", epoch)

	// Alice's 30 share cancels Bob's debt without creating a new one
	res, err := e.CreateExpense(ctx, expense(boardID, bob, "60"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if res.DebtsCreated != 0 || res.DebtsClosed != 1 {
		t.Fatalf("Unexpected outcome %+v", res.SplitOutcome)
	}

	if _, err := e.DeleteExpense(ctx, bob, res.Expense.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	// Only the expense's own unpaid debts are removed; the closed debt stays closed
	d := testutil.GetTestDebt(t, db, existing)
	if !d.IsPaid || !d.Amount.IsZero() {
		t.Errorf("Expected the consumed debt to stay closed, got %+v", d)
	}
	balances, err := e.Balances(ctx, alice, nil)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if len(balances) != 0 {
		t.Errorf("Expected no open balance, got %+v", balances)
	}
}

func TestUpdateExpenseResplits(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)

	res, err := e.CreateExpense(ctx, expense(boardID, alice, "100"))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Payer switches to Bob: Alice now owes half
	updated, err := e.UpdateExpense(ctx, alice, res.Expense.ID, models.UpdateExpenseRequest{PaidBy: &bob})
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if updated.DebtsCreated != 1 {
		t.Fatalf("Expected 1 regenerated debt, got %+v", updated.SplitOutcome)
	}

	debts := testutil.ListTestDebts(t, db, boardID)
	if len(debts) != 1 || debts[0].FromUserID != alice || !debts[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected only Alice owing 50, got %+v", debts)
	}

	deleted, err := e.DeleteExpense(ctx, bob, res.Expense.ID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if deleted.ID != res.Expense.ID {
		t.Errorf("Expected deleted expense %s, got %s", res.Expense.ID, deleted.ID)
	}
	if len(testutil.ListTestDebts(t, db, boardID)) != 0 {
		t.Error("Expected debts removed with the expense")
	}

	_, err = e.DeleteExpense(ctx, bob, res.Expense.ID)
	requireKind(t, err, ledger.KindNotFound)
}

func TestCreateExpenseValidation(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	outsider := testutil.CreateTestUser(t, db, "Outsider")
	boardID := testutil.CreateTestBoard(t, db, alice)

	tests := []struct {
		name string
		in   ledger.ExpenseInput
	}{
		{"zero amount", expense(boardID, alice, "0")},
		{"negative amount", expense(boardID, alice, "-5")},
		{"actor not a member", expense(boardID, outsider, "10")},
		{"payer not a member", ledger.ExpenseInput{BoardID: boardID, ActorID: alice, PaidBy: outsider, Amount: decimal.NewFromInt(10)}},
		{"recurring without frequency", ledger.ExpenseInput{BoardID: boardID, ActorID: alice, Amount: decimal.NewFromInt(10), IsRecurring: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateExpense(ctx, tt.in)
			requireKind(t, err, ledger.KindValidation)
		})
	}
}

func TestAutoOffset(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	carol := testutil.CreateTestUser(t, db, "Carol")
	home := testutil.CreateTestBoard(t, db, alice, bob, carol)
	trip := testutil.CreateTestBoard(t, db, alice, bob)

	// Home: Alice owes Bob 30, Bob owes Alice 10 + 15
	testutil.CreateTestDebt(t, db, home, "", alice, bob, "30", epoch)
	testutil.CreateTestDebt(t, db, home, "", bob, alice, "15", epoch.Add(time.Minute))
	testutil.CreateTestDebt(t, db, home, "", bob, alice, "10", epoch.Add(2*time.Minute))
	// Trip: Alice owes Bob 5, Bob owes Alice 8
	testutil.CreateTestDebt(t, db, trip, "", alice, bob, "5", epoch)
	testutil.CreateTestDebt(t, db, trip, "", bob, alice, "8", epoch)
	// Carol: one direction only, nothing to offset
	carolDebt := testutil.CreateTestDebt(t, db, home, "", carol, alice, "12", epoch)

	// Across both boards Alice owes Bob 35 and Bob owes Alice 33
	res, err := e.AutoOffset(ctx, alice, nil)
	if err != nil {
		t.Fatalf("AutoOffset failed: %v", err)
	}
	if res.OffsetsProcessed != 1 || !res.TotalAmountOffset.Equal(decimal.NewFromInt(33)) {
		t.Fatalf("Unexpected result %+v", res)
	}
	if len(res.Details) != 1 {
		t.Fatalf("Expected details for Bob only, got %+v", res.Details)
	}
	det := res.Details[0]
	if det.CounterpartyID != bob || !det.AmountOffset.Equal(decimal.NewFromInt(33)) || !det.ResultingBalance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Unexpected detail %+v", det)
	}

	// The 5 closes first, then the 30 drops to 2; every Bob debt closes
	var open []models.Debt
	for _, boardID := range []string{home, trip} {
		debts := testutil.ListTestDebts(t, db, boardID)
		for _, d := range debts {
			if !d.IsPaid && d.FromUserID != carol && d.ToUserID != carol {
				open = append(open, d)
			}
		}
		requireConservation(t, debts)
	}
	if len(open) != 1 || open[0].BoardID != home || open[0].FromUserID != alice || !open[0].Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected only Alice's home debt open at 2, got %+v", open)
	}

	if d := testutil.GetTestDebt(t, db, carolDebt); !d.Amount.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected Carol's debt untouched, got %s", d.Amount)
	}

	// Nothing left to offset
	again, err := e.AutoOffset(ctx, alice, []string{home, trip})
	if err != nil {
		t.Fatalf("Second AutoOffset failed: %v", err)
	}
	if again.OffsetsProcessed != 0 || !again.TotalAmountOffset.IsZero() {
		t.Errorf("Expected no-op, got %+v", again)
	}

	_, err = e.AutoOffset(ctx, carol, []string{trip})
	requireKind(t, err, ledger.KindValidation)
}

func TestAutoOffsetAcrossBoards(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	home := testutil.CreateTestBoard(t, db, alice, bob)
	trip := testutil.CreateTestBoard(t, db, bob, alice)

	homeDebt := testutil.CreateTestDebt(t, db, home, "", alice, bob, "40", epoch)
	tripDebt := testutil.CreateTestDebt(t, db, trip, "", bob, alice, "40", epoch)

	res, err := e.AutoOffset(ctx, alice, nil)
	if err != nil {
		t.Fatalf("AutoOffset failed: %v", err)
	}
	if res.OffsetsProcessed != 1 || !res.TotalAmountOffset.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("Unexpected result %+v", res)
	}
	if !res.Details[0].ResultingBalance.IsZero() {
		t.Errorf("Expected a zero resulting balance, got %s", res.Details[0].ResultingBalance)
	}

	for _, id := range []string{homeDebt, tripDebt} {
		d := testutil.GetTestDebt(t, db, id)
		if !d.IsPaid {
			t.Errorf("Expected debt %s closed", id)
		}
		if id == homeDebt && d.BoardID != home || id == tripDebt && d.BoardID != trip {
			t.Errorf("Debt %s moved boards", id)
		}
	}

	// Restricting the scope to one board leaves nothing to net
	fresh := testutil.CreateTestDebt(t, db, home, "", alice, bob, "10", epoch.Add(time.Hour))
	testutil.CreateTestDebt(t, db, trip, "", bob, alice, "10", epoch.Add(time.Hour))
	res, err = e.AutoOffset(ctx, alice, []string{home})
	if err != nil {
		t.Fatalf("Scoped AutoOffset failed: %v", err)
	}
	if res.OffsetsProcessed != 0 {
		t.Errorf("Expected no offset inside a single board, got %+v", res)
	}
	if d := testutil.GetTestDebt(t, db, fresh); d.IsPaid {
		t.Error("Expected the home debt to stay open")
	}
}

func TestAutoOffsetResultingBalanceMatchesBalances(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	home := testutil.CreateTestBoard(t, db, alice, bob)
	trip := testutil.CreateTestBoard(t, db, alice, bob)

	testutil.CreateTestDebt(t, db, home, "", alice, bob, "30", epoch)
	testutil.CreateTestDebt(t, db, home, "", bob, alice, "10", epoch)
	testutil.CreateTestDebt(t, db, trip, "", alice, bob, "50", epoch)

	res, err := e.AutoOffset(ctx, alice, nil)
	if err != nil {
		t.Fatalf("AutoOffset failed: %v", err)
	}
	balances, err := e.Balances(ctx, alice, nil)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	if len(res.Details) != 1 || len(balances) != 1 {
		t.Fatalf("Expected one counterparty, got details %+v balances %+v", res.Details, balances)
	}
	if !res.Details[0].ResultingBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected resulting balance 70, got %s", res.Details[0].ResultingBalance)
	}
	if !res.Details[0].ResultingBalance.Equal(balances[0].NetBalance) {
		t.Errorf("Resulting balance %s disagrees with Balances %s", res.Details[0].ResultingBalance, balances[0].NetBalance)
	}
}

func TestBalancesWithoutBoards(t *testing.T) {
	e, db := newEngine(t)
	loner := testutil.CreateTestUser(t, db, "Loner")

	balances, err := e.Balances(context.Background(), loner, nil)
	if err != nil {
		t.Fatalf("Expected no error for a user without boards, got %v", err)
	}
	if balances == nil || len(balances) != 0 {
		t.Errorf("Expected an empty list, got %+v", balances)
	}

	_, err = e.Balances(context.Background(), loner, []string{"elsewhere"})
	requireKind(t, err, ledger.KindValidation)
}

func TestMarkDebtPaid(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)
	debtID := testutil.CreateTestDebt(t, db, boardID, "", bob, alice, "25", epoch)

	_, err := e.MarkDebtPaid(ctx, bob, debtID)
	requireKind(t, err, ledger.KindValidation)

	d, err := e.MarkDebtPaid(ctx, alice, debtID)
	if err != nil {
		t.Fatalf("MarkDebtPaid failed: %v", err)
	}
	if d.State() != models.DebtClosed || d.PaidAt == nil {
		t.Errorf("Expected closed debt with paid_at, got %+v", d)
	}

	_, err = e.MarkDebtPaid(ctx, alice, debtID)
	requireKind(t, err, ledger.KindConflict)

	_, err = e.MarkDebtPaid(ctx, alice, "missing")
	requireKind(t, err, ledger.KindNotFound)
}

// failingStore injects an error into the unit of work after the engine has
// already written to it.
type failingStore struct {
	inner ledger.Store
}

func (s failingStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.inner.WithinTx(ctx, func(tx ledger.Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

type failingTx struct {
	ledger.Tx
}

var errInsertFailed = errors.New("insert failed")

func (failingTx) InsertDebt(context.Context, models.Debt) error {
	return errInsertFailed
}

func TestRollbackOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := ledger.New(failingStore{inner: store.New(db)}, ledger.WithClock(steppingClock()))
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)
	existing := testutil.CreateTestDebt(t, db, boardID, "", bob, alice, "30", epoch)

	counters := []prometheus.Collector{metrics.DebtsCreated, metrics.DebtsClosed, metrics.DebtsReduced, metrics.OffsetAmount}
	before := make([]float64, len(counters))
	for i, c := range counters {
		before[i] = promtest.ToFloat64(c)
	}

	// The offset against the existing debt is written before the insert fails
	_, err := e.CreateExpense(ctx, expense(boardID, bob, "100"))
	requireKind(t, err, ledger.KindTransaction)
	for i, c := range counters {
		if got := promtest.ToFloat64(c); got != before[i] {
			t.Errorf("Counter %d moved on rollback: %v -> %v", i, before[i], got)
		}
	}
	if !errors.Is(err, errInsertFailed) {
		t.Errorf("Expected the cause to be preserved, got %v", err)
	}

	d := testutil.GetTestDebt(t, db, existing)
	if d.IsPaid || !d.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected the offset rolled back, got %+v", d)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM expense WHERE board_id = $1`, boardID).Scan(&count); err != nil {
		t.Fatalf("Failed to count expenses: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected the expense insert rolled back, got %d rows", count)
	}
}

func TestSettlementCountersFollowCommit(t *testing.T) {
	e, db := newEngine(t)
	ctx := context.Background()

	alice := testutil.CreateTestUser(t, db, "Alice")
	bob := testutil.CreateTestUser(t, db, "Bob")
	boardID := testutil.CreateTestBoard(t, db, alice, bob)
	testutil.CreateTestDebt(t, db, boardID, "", bob, alice, "30", epoch)

	created := promtest.ToFloat64(metrics.DebtsCreated)
	closed := promtest.ToFloat64(metrics.DebtsClosed)
	offset := promtest.ToFloat64(metrics.OffsetAmount)

	// Alice's 50 share closes Bob's 30 and leaves a new 20 debt
	if _, err := e.CreateExpense(ctx, expense(boardID, bob, "100")); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if got := promtest.ToFloat64(metrics.DebtsCreated) - created; got != 1 {
		t.Errorf("Expected 1 created debt, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.DebtsClosed) - closed; got != 1 {
		t.Errorf("Expected 1 closed debt, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.OffsetAmount) - offset; got != 30 {
		t.Errorf("Expected 30 offset, got %v", got)
	}
}
