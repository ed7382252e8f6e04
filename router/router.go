// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/handlers"
	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/notify"
	"github.com/danielhkuo/splitboard/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Ledger engine and notifications
	engine := ledger.New(store.New(db))
	notifier := notify.NewSQLDispatcher(db)

	// Initialize handlers
	boardHandler := handlers.NewBoardHandler(db, cfg)
	expenseHandler := handlers.NewExpenseHandler(db, cfg, engine, notifier)
	debtHandler := handlers.NewDebtHandler(db, cfg, engine, notifier)
	notificationHandler := handlers.NewNotificationHandler(db, cfg)
	pushTokenHandler := handlers.NewPushTokenHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Users and boards
	mux.HandleFunc("POST /api/users", middleware.WithLogging(boardHandler.CreateUser))
	mux.HandleFunc("GET /api/users/{id}", middleware.WithLogging(boardHandler.GetUser))
	mux.HandleFunc("POST /api/boards", middleware.WithLogging(boardHandler.CreateBoard))
	mux.HandleFunc("GET /api/boards", middleware.WithLogging(boardHandler.ListBoards))
	mux.HandleFunc("GET /api/boards/{id}/members", middleware.WithLogging(boardHandler.ListMembers))
	mux.HandleFunc("POST /api/boards/{id}/members", middleware.WithLogging(boardHandler.AddMember))
	mux.HandleFunc("DELETE /api/boards/{id}/members/{userID}", middleware.WithLogging(boardHandler.RemoveMember))

	// Expenses
	mux.HandleFunc("GET /api/boards/{id}/expenses", middleware.WithLogging(expenseHandler.ListExpenses))
	mux.HandleFunc("POST /api/boards/{id}/expenses", middleware.WithLogging(expenseHandler.CreateExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", middleware.WithLogging(expenseHandler.UpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", middleware.WithLogging(expenseHandler.DeleteExpense))

	// Debts
	mux.HandleFunc("GET /api/boards/{id}/debts", middleware.WithLogging(debtHandler.ListBoardDebts))
	mux.HandleFunc("GET /api/debts/balances", middleware.WithLogging(debtHandler.Balances))
	mux.HandleFunc("POST /api/debts/process-partial-payment", middleware.WithLogging(debtHandler.ProcessPartialPayment))
	mux.HandleFunc("POST /api/debts/auto-offset", middleware.WithLogging(debtHandler.AutoOffset))
	mux.HandleFunc("POST /api/debts/{id}/mark-paid", middleware.WithLogging(debtHandler.MarkPaid))

	// Notifications and push tokens
	mux.HandleFunc("GET /api/notifications", middleware.WithLogging(notificationHandler.List))
	mux.HandleFunc("POST /api/notifications/{id}/read", middleware.WithLogging(notificationHandler.MarkRead))
	mux.HandleFunc("POST /api/push-tokens", middleware.WithLogging(pushTokenHandler.Register))
	mux.HandleFunc("DELETE /api/push-tokens/{token}", middleware.WithLogging(pushTokenHandler.Delete))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("splitboard API v1"))
	})

	return mux
}
