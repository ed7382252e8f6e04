// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/splitboard/auth"
	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
)

// requireUser reads the caller's id or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := auth.UserIDFromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrMissingUser) {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-ID header required")
		} else {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid X-User-ID header")
		}
		return "", false
	}
	return userID, true
}

// writeLedgerError maps an engine failure to a response. conflictStatus is
// the status used for KindConflict.
func writeLedgerError(w http.ResponseWriter, err error, conflictStatus int) {
	var le *ledger.Error
	if !errors.As(err, &le) {
		slog.Error("ledger operation failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	switch le.Kind {
	case ledger.KindValidation:
		middleware.ErrorResponse(w, http.StatusBadRequest, le.Msg)
	case ledger.KindNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, le.Msg)
	case ledger.KindConflict:
		middleware.ErrorResponse(w, conflictStatus, le.Msg)
	default:
		slog.Error("ledger transaction failed", "op", le.Op, "error", le.Err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Transaction failed, no changes were made")
	}
}

// getMember loads a membership row. Returns models.ErrNotFound if absent.
func getMember(ctx context.Context, db *sql.DB, boardID, userID string) (models.BoardMember, error) {
	var m models.BoardMember
	err := db.QueryRowContext(ctx, `
		SELECT board_id, user_id, role, is_active, joined_at
		FROM board_member WHERE board_id = $1 AND user_id = $2
	`, boardID, userID).Scan(&m.BoardID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return models.BoardMember{}, models.ErrNotFound
	}
	return m, err
}

// requireActiveMember writes 404 for an unknown board or 403 when the caller
// is not an active member of it
func requireActiveMember(w http.ResponseWriter, r *http.Request, db *sql.DB, boardID, userID string) (models.BoardMember, bool) {
	var exists bool
	err := db.QueryRowContext(r.Context(), `SELECT EXISTS(SELECT 1 FROM board WHERE id = $1)`, boardID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query board", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.BoardMember{}, false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Board not found")
		return models.BoardMember{}, false
	}

	m, err := getMember(r.Context(), db, boardID, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		slog.Error("failed to query member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.BoardMember{}, false
	}
	if err != nil || !m.IsActive {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not a member of this board")
		return models.BoardMember{}, false
	}
	return m, true
}

// parseBoardIDs reads a comma separated board_ids query value
func parseBoardIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
