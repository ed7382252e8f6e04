// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
)

type PushTokenHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPushTokenHandler(db *sql.DB, cfg cliparse.Config) *PushTokenHandler {
	return &PushTokenHandler{db: db, cfg: cfg}
}

// Register handles POST /api/push-tokens
// Registers a device token for the caller (or refreshes an existing one).
// A token seen before under another user moves to the caller.
func (h *PushTokenHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.RegisterPushTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "token is required")
		return
	}
	if !isValidPlatform(req.Platform) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "platform must be one of: ios, android, web")
		return
	}

	// Check if token already exists
	var existingUser string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT user_id FROM push_token WHERE token = $1
	`, req.Token).Scan(&existingUser)

	now := time.Now().UTC()
	if err == nil {
		_, err = h.db.ExecContext(r.Context(), `
			UPDATE push_token SET user_id = $1, platform = $2, last_seen_at = $3 WHERE token = $4
		`, userID, req.Platform, now, req.Token)
		if err != nil {
			slog.Error("failed to refresh push token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register token")
			return
		}

		slog.Info("push token registered (existing)", "user_id", userID, "previous_user", existingUser)
		middleware.JSONResponse(w, http.StatusOK, models.RegisterPushTokenResponse{
			Token: req.Token,
			IsNew: false,
		})
		return
	}

	if err != sql.ErrNoRows {
		slog.Error("failed to query push token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO push_token (token, user_id, platform, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.Token, userID, req.Platform, now, now)
	if err != nil {
		slog.Error("failed to insert push token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register token")
		return
	}

	slog.Info("push token registered (new)", "user_id", userID, "platform", req.Platform)
	middleware.JSONResponse(w, http.StatusCreated, models.RegisterPushTokenResponse{
		Token: req.Token,
		IsNew: true,
	})
}

// Delete handles DELETE /api/push-tokens/{token}
func (h *PushTokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM push_token WHERE token = $1 AND user_id = $2
	`, r.PathValue("token"), userID)
	if err != nil {
		slog.Error("failed to delete push token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Token not found")
		return
	}

	slog.Info("push token removed", "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Token removed"})
}

func isValidPlatform(platform string) bool {
	switch platform {
	case models.PlatformIOS, models.PlatformAndroid, models.PlatformWeb:
		return true
	}
	return false
}
