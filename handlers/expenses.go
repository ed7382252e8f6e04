// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
	"github.com/danielhkuo/splitboard/notify"
	"github.com/danielhkuo/splitboard/store"
)

type ExpenseHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	engine   *ledger.Engine
	notifier notify.Dispatcher
}

func NewExpenseHandler(db *sql.DB, cfg cliparse.Config, engine *ledger.Engine, notifier notify.Dispatcher) *ExpenseHandler {
	return &ExpenseHandler{db: db, cfg: cfg, engine: engine, notifier: notifier}
}

// CreateExpense handles POST /api/boards/{id}/expenses
// Splits the amount across active members and offsets existing debts
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	if _, ok := requireActiveMember(w, r, h.db, boardID, userID); !ok {
		return
	}

	var req models.CreateExpenseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	in := ledger.ExpenseInput{
		BoardID:     boardID,
		ActorID:     userID,
		PaidBy:      req.PaidBy,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Frequency:   req.Frequency,
		Tags:        req.Tags,
	}
	if req.Date != nil {
		in.Date = req.Date.UTC()
	}

	res, err := h.engine.CreateExpense(r.Context(), in)
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	h.notifier.Dispatch(r.Context(), notify.Event{
		BoardID: boardID,
		ActorID: userID,
		Kind:    models.NotifyExpenseCreated,
		Message: fmt.Sprintf("New expense: %s (%s)", expenseLabel(res.Expense), notify.FormatAmount(res.Expense.Amount)),
	})

	middleware.JSONResponse(w, http.StatusCreated, expenseResponse(res))
}

// ListExpenses handles GET /api/boards/{id}/expenses
// Returns the board's expenses, newest first
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	if _, ok := requireActiveMember(w, r, h.db, boardID, userID); !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+store.ExpenseColumns+`
		FROM expense
		WHERE board_id = $1
		ORDER BY date DESC, created_at DESC, id
	`, boardID)
	if err != nil {
		slog.Error("failed to query expenses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := store.ScanExpense(rows)
		if err != nil {
			slog.Error("failed to scan expense", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate expenses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, expenses)
}

// UpdateExpense handles PUT /api/expenses/{id}
// Changing amount or paid_by regenerates the expense's unpaid debts and is
// refused with 409 once any of them has been settled
func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateExpenseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Date != nil {
		d := req.Date.UTC()
		req.Date = &d
	}

	res, err := h.engine.UpdateExpense(r.Context(), userID, r.PathValue("id"), req)
	if err != nil {
		writeLedgerError(w, err, http.StatusConflict)
		return
	}

	h.notifier.Dispatch(r.Context(), notify.Event{
		BoardID: res.Expense.BoardID,
		ActorID: userID,
		Kind:    models.NotifyExpenseUpdated,
		Message: fmt.Sprintf("Expense updated: %s (%s)", expenseLabel(res.Expense), notify.FormatAmount(res.Expense.Amount)),
	})

	middleware.JSONResponse(w, http.StatusOK, expenseResponse(res))
}

// DeleteExpense handles DELETE /api/expenses/{id}
// Refused with 400 while any of the expense's debts has been settled
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.engine.DeleteExpense(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err, http.StatusBadRequest)
		return
	}

	h.notifier.Dispatch(r.Context(), notify.Event{
		BoardID: deleted.BoardID,
		ActorID: userID,
		Kind:    models.NotifyExpenseDeleted,
		Message: fmt.Sprintf("Expense deleted: %s (%s)", expenseLabel(deleted), notify.FormatAmount(deleted.Amount)),
	})

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Expense deleted"})
}

func expenseResponse(res ledger.ExpenseResult) models.CreateExpenseResponse {
	return models.CreateExpenseResponse{
		Expense:      res.Expense,
		DebtsCreated: res.DebtsCreated,
		DebtsClosed:  res.DebtsClosed,
		DebtsReduced: res.DebtsReduced,
	}
}

func expenseLabel(e models.Expense) string {
	if e.Description != "" {
		return e.Description
	}
	return e.Category
}
