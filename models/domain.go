// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Member roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Recurrence frequencies
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// DebtState is derived from amount, paid_amount and is_paid.
type DebtState string

const (
	DebtOpen             DebtState = "open"
	DebtPartiallyReduced DebtState = "partially_reduced"
	DebtClosed           DebtState = "closed"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type BoardMember struct {
	BoardID  string    `json:"board_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

// CanManage reports whether the member may add or remove other members.
func (m BoardMember) CanManage() bool {
	return m.IsActive && (m.Role == RoleOwner || m.Role == RoleAdmin)
}

// Expense is a shared cost paid by one member of a board.
type Expense struct {
	ID          string          `json:"id"`
	BoardID     string          `json:"board_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	PaidBy      string          `json:"paid_by"`
	CreatedBy   string          `json:"created_by"`
	Date        time.Time       `json:"date"`
	IsRecurring bool            `json:"is_recurring"`
	Frequency   string          `json:"frequency,omitempty"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewExpense validates the fields of an expense before it is persisted.
// ID and timestamps are left for the caller to fill.
func NewExpense(boardID string, amount decimal.Decimal, paidBy, createdBy string) (Expense, error) {
	e := Expense{
		BoardID:   boardID,
		Amount:    amount,
		PaidBy:    paidBy,
		CreatedBy: createdBy,
		Category:  "general",
		Tags:      []string{},
	}
	return e, e.Validate()
}

// Validate checks the invariants of an expense.
func (e Expense) Validate() error {
	switch {
	case e.BoardID == "":
		return errors.New("board_id is required")
	case !e.Amount.IsPositive():
		return errors.New("amount must be greater than 0")
	case e.PaidBy == "":
		return errors.New("paid_by is required")
	case e.CreatedBy == "":
		return errors.New("created_by is required")
	}
	if e.IsRecurring && !IsValidFrequency(e.Frequency) {
		return fmt.Errorf("frequency must be one of: %s, %s, %s, %s",
			FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly)
	}
	return nil
}

func IsValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// JoinTags flattens tags for storage.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

// SplitTags is the inverse of JoinTags.
func SplitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// Debt is a directed obligation from FromUserID (debtor) to ToUserID
// (creditor) inside one board.
//
// Amount is the outstanding part and never increases. PaidAmount never
// decreases. Once OriginalAmount is set, Amount + PaidAmount equals it.
type Debt struct {
	ID             string              `json:"id"`
	BoardID        string              `json:"board_id"`
	ExpenseID      *string             `json:"expense_id,omitempty"`
	FromUserID     string              `json:"from_user_id"`
	ToUserID       string              `json:"to_user_id"`
	Amount         decimal.Decimal     `json:"amount"`
	OriginalAmount decimal.NullDecimal `json:"original_amount"`
	PaidAmount     decimal.Decimal     `json:"paid_amount"`
	IsPaid         bool                `json:"is_paid"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewDebt builds an open debt for a fresh obligation. OriginalAmount is set
// to amount so the conservation invariant holds from creation.
func NewDebt(boardID string, expenseID *string, from, to string, amount decimal.Decimal) (Debt, error) {
	d := Debt{
		BoardID:        boardID,
		ExpenseID:      expenseID,
		FromUserID:     from,
		ToUserID:       to,
		Amount:         amount,
		OriginalAmount: decimal.NewNullDecimal(amount),
		PaidAmount:     decimal.Zero,
	}
	if !amount.IsPositive() {
		return Debt{}, errors.New("debt amount must be greater than 0")
	}
	if err := d.Validate(); err != nil {
		return Debt{}, err
	}
	return d, nil
}

// Validate checks the debt invariants.
func (d Debt) Validate() error {
	switch {
	case d.BoardID == "":
		return errors.New("debt must belong to a board")
	case d.FromUserID == "" || d.ToUserID == "":
		return errors.New("debt requires both debtor and creditor")
	case d.FromUserID == d.ToUserID:
		return errors.New("debtor and creditor must differ")
	case d.Amount.IsNegative():
		return errors.New("debt amount must not be negative")
	case d.PaidAmount.IsNegative():
		return errors.New("paid amount must not be negative")
	case d.IsPaid != d.Amount.IsZero():
		return errors.New("is_paid must match a zero outstanding amount")
	}
	if d.OriginalAmount.Valid && !d.Amount.Add(d.PaidAmount).Equal(d.OriginalAmount.Decimal) {
		return fmt.Errorf("amount %s + paid %s does not equal original %s",
			d.Amount, d.PaidAmount, d.OriginalAmount.Decimal)
	}
	return nil
}

// State reports where the debt sits in its lifecycle.
func (d Debt) State() DebtState {
	switch {
	case d.IsPaid:
		return DebtClosed
	case d.PaidAmount.IsPositive():
		return DebtPartiallyReduced
	default:
		return DebtOpen
	}
}

// Involves reports whether userID is either side of the debt.
func (d Debt) Involves(userID string) bool {
	return d.FromUserID == userID || d.ToUserID == userID
}

// Counterparty returns the other side of the debt relative to userID.
func (d Debt) Counterparty(userID string) string {
	if d.FromUserID == userID {
		return d.ToUserID
	}
	return d.FromUserID
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BoardID   *string   `json:"board_id,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type PushToken struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	Platform   string    `json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
