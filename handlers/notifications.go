// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
)

type NotificationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewNotificationHandler(db *sql.DB, cfg cliparse.Config) *NotificationHandler {
	return &NotificationHandler{db: db, cfg: cfg}
}

// List handles GET /api/notifications
// Newest first; unread=true limits to unread notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := `
		SELECT id, user_id, board_id, kind, message, is_read, created_at
		FROM notification
		WHERE user_id = $1`
	args := []any{userID}
	if r.URL.Query().Get("unread") == "true" {
		query += ` AND is_read = $2`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id LIMIT 100`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var boardID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &boardID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			slog.Error("failed to scan notification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if boardID.Valid {
			n.BoardID = &boardID.String
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, notifications)
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE notification SET is_read = $1 WHERE id = $2 AND user_id = $3
	`, true, r.PathValue("id"), userID)
	if err != nil {
		slog.Error("failed to update notification", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Notification not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Notification marked as read"})
}
