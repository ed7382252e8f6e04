// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
	"github.com/danielhkuo/splitboard/notify"
	"github.com/danielhkuo/splitboard/store"
)

type DebtHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	engine   *ledger.Engine
	notifier notify.Dispatcher
}

func NewDebtHandler(db *sql.DB, cfg cliparse.Config, engine *ledger.Engine, notifier notify.Dispatcher) *DebtHandler {
	return &DebtHandler{db: db, cfg: cfg, engine: engine, notifier: notifier}
}

// ListBoardDebts handles GET /api/boards/{id}/debts
// Unpaid debts only unless include_paid=true
func (h *DebtHandler) ListBoardDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	if _, ok := requireActiveMember(w, r, h.db, boardID, userID); !ok {
		return
	}

	query := `SELECT ` + store.DebtColumns + ` FROM debt WHERE board_id = $1`
	args := []any{boardID}
	if r.URL.Query().Get("include_paid") != "true" {
		query += ` AND is_paid = $2`
		args = append(args, false)
	}
	query += ` ORDER BY created_at, id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query debts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		d, err := store.ScanDebt(rows)
		if err != nil {
			slog.Error("failed to scan debt", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate debts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, debts)
}

// Balances handles GET /api/debts/balances
// Net balance with each counterparty; positive means the caller owes them
func (h *DebtHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	balances, err := h.engine.Balances(r.Context(), userID, parseBoardIDs(r.URL.Query().Get("board_ids")))
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BalancesResponse{Balances: balances})
}

// ProcessPartialPayment handles POST /api/debts/process-partial-payment
// The caller is the creditor receiving payment_amount from from_user_id
func (h *DebtHandler) ProcessPartialPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.PartialPaymentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.engine.ProcessPartialPayment(r.Context(), ledger.PaymentRequest{
		DebtorID:   req.FromUserID,
		CreditorID: userID,
		Amount:     req.PaymentAmount,
		BoardIDs:   req.BoardIDs,
	})
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	if res.TotalProcessed.IsPositive() {
		h.notifier.Dispatch(r.Context(), notify.Event{
			ActorID: userID,
			Kind:    models.NotifyPayment,
			Message: fmt.Sprintf("Payment of %s recorded", notify.FormatAmount(res.TotalProcessed)),
			UserIDs: []string{req.FromUserID},
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.PartialPaymentResponse{
		DebtsClosed:    res.DebtsClosed,
		DebtsUpdated:   res.DebtsUpdated,
		TotalProcessed: res.TotalProcessed,
	})
}

// AutoOffset handles POST /api/debts/auto-offset
// Cancels reciprocal debts between the caller and each counterparty.
// An empty body means all of the caller's boards.
func (h *DebtHandler) AutoOffset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.AutoOffsetRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.engine.AutoOffset(r.Context(), userID, req.BoardIDs)
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	for _, d := range res.Details {
		h.notifier.Dispatch(r.Context(), notify.Event{
			ActorID: userID,
			Kind:    models.NotifyAutoOffset,
			Message: fmt.Sprintf("Debts offset: %s cancelled out", notify.FormatAmount(d.AmountOffset)),
			UserIDs: []string{d.CounterpartyID},
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.AutoOffsetResponse{
		OffsetsProcessed:  res.OffsetsProcessed,
		TotalAmountOffset: res.TotalAmountOffset,
		Details:           res.Details,
	})
}

// MarkPaid handles POST /api/debts/{id}/mark-paid
// Only the creditor can close a debt in full
func (h *DebtHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	debt, err := h.engine.MarkDebtPaid(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	h.notifier.Dispatch(r.Context(), notify.Event{
		BoardID: debt.BoardID,
		ActorID: userID,
		Kind:    models.NotifyPayment,
		Message: fmt.Sprintf("Debt of %s marked as paid", notify.FormatAmount(debt.PaidAmount)),
		UserIDs: []string{debt.FromUserID},
	})

	middleware.JSONResponse(w, http.StatusOK, debt)
}
