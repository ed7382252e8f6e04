package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification kinds
const (
	NotifyExpenseCreated = "expense_created"
	NotifyExpenseUpdated = "expense_updated"
	NotifyExpenseDeleted = "expense_deleted"
	NotifyPayment        = "payment_received"
	NotifyAutoOffset     = "debts_offset"
)

// Push token platforms
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// Request types

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	PaidBy      string          `json:"paid_by"`
	Date        *time.Time      `json:"date"`
	IsRecurring bool            `json:"is_recurring"`
	Frequency   string          `json:"frequency"`
	Tags        []string        `json:"tags"`
}

// Nil fields are left unchanged.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	PaidBy      *string          `json:"paid_by"`
	Date        *time.Time       `json:"date"`
	IsRecurring *bool            `json:"is_recurring"`
	Frequency   *string          `json:"frequency"`
	Tags        []string         `json:"tags"`
}

type PartialPaymentRequest struct {
	FromUserID    string          `json:"from_user_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	BoardIDs      []string        `json:"board_ids"`
}

type AutoOffsetRequest struct {
	BoardIDs []string `json:"board_ids"`
}

type RegisterPushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Response types

type CreateExpenseResponse struct {
	Expense      Expense `json:"expense"`
	DebtsCreated int     `json:"debts_created"`
	DebtsClosed  int     `json:"debts_closed"`
	DebtsReduced int     `json:"debts_reduced"`
}

type PartialPaymentResponse struct {
	DebtsClosed    int             `json:"debts_closed"`
	DebtsUpdated   int             `json:"debts_updated"`
	TotalProcessed decimal.Decimal `json:"total_processed"`
}

type OffsetDetail struct {
	CounterpartyID   string          `json:"counterparty_id"`
	AmountOffset     decimal.Decimal `json:"amount_offset"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
}

type AutoOffsetResponse struct {
	OffsetsProcessed  int             `json:"offsets_processed"`
	TotalAmountOffset decimal.Decimal `json:"total_amount_offset"`
	Details           []OffsetDetail  `json:"details"`
}

// Positive NetBalance means the caller owes the counterparty.
type CounterpartyBalance struct {
	CounterpartyID string          `json:"counterparty_id"`
	NetBalance     decimal.Decimal `json:"net_balance"`
}

type BalancesResponse struct {
	Balances []CounterpartyBalance `json:"balances"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterPushTokenResponse struct {
	Token string `json:"token"`
	IsNew bool   `json:"is_new"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
