// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/splitboard/auth"
	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/middleware"
	"github.com/danielhkuo/splitboard/models"
)

type BoardHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewBoardHandler(db *sql.DB, cfg cliparse.Config) *BoardHandler {
	return &BoardHandler{db: db, cfg: cfg}
}

// CreateUser handles POST /api/users
func (h *BoardHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	user := models.User{
		ID:        auth.GenerateID(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO app_user (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Name, user.Email, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Email already registered")
			return
		}
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	slog.Info("user created", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// GetUser handles GET /api/users/{id}
func (h *BoardHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var user models.User
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, name, email, created_at FROM app_user WHERE id = $1
	`, r.PathValue("id")).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// CreateBoard handles POST /api/boards
// The caller becomes the board's owner.
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateBoardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var exists bool
	err := h.db.QueryRowContext(r.Context(), `SELECT EXISTS(SELECT 1 FROM app_user WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	board := models.Board{
		ID:          auth.GenerateID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO board (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, board.ID, board.Name, board.Description, board.CreatedBy, board.CreatedAt)
	if err != nil {
		slog.Error("failed to insert board", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create board")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO board_member (board_id, user_id, role, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, board.ID, userID, models.RoleOwner, true, board.CreatedAt)
	if err != nil {
		slog.Error("failed to insert board owner", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create board")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create board")
		return
	}

	slog.Info("board created", "board_id", board.ID, "owner", userID)
	middleware.JSONResponse(w, http.StatusCreated, board)
}

// ListBoards handles GET /api/boards
// Returns the boards the caller is an active member of
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT b.id, b.name, b.description, b.created_by, b.created_at
		FROM board b
		JOIN board_member m ON m.board_id = b.id
		WHERE m.user_id = $1 AND m.is_active = $2
		ORDER BY b.created_at DESC, b.id
	`, userID, true)
	if err != nil {
		slog.Error("failed to query boards", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.CreatedAt); err != nil {
			slog.Error("failed to scan board", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate boards", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, boards)
}

// ListMembers handles GET /api/boards/{id}/members
func (h *BoardHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	if _, ok := requireActiveMember(w, r, h.db, boardID, userID); !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT board_id, user_id, role, is_active, joined_at
		FROM board_member
		WHERE board_id = $1
		ORDER BY joined_at, user_id
	`, boardID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	members := []models.BoardMember{}
	for rows.Next() {
		var m models.BoardMember
		if err := rows.Scan(&m.BoardID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt); err != nil {
			slog.Error("failed to scan member", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, members)
}

// AddMember handles POST /api/boards/{id}/members
// Owners and admins only. Re-adding an inactive member reactivates them.
func (h *BoardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	caller, ok := requireActiveMember(w, r, h.db, boardID, userID)
	if !ok {
		return
	}
	if !caller.CanManage() {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only owners and admins can add members")
		return
	}

	var req models.AddMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Role != models.RoleMember && req.Role != models.RoleAdmin {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be one of: member, admin")
		return
	}

	var exists bool
	err := h.db.QueryRowContext(r.Context(), `SELECT EXISTS(SELECT 1 FROM app_user WHERE id = $1)`, req.UserID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	member := models.BoardMember{
		BoardID:  boardID,
		UserID:   req.UserID,
		Role:     req.Role,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO board_member (board_id, user_id, role, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (board_id, user_id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			role = CASE WHEN board_member.role = 'owner' THEN 'owner' ELSE EXCLUDED.role END
	`, member.BoardID, member.UserID, member.Role, member.IsActive, member.JoinedAt)
	if err != nil {
		slog.Error("failed to add member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add member")
		return
	}

	member, err = getMember(r.Context(), h.db, boardID, req.UserID)
	if err != nil {
		slog.Error("failed to reload member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("member added", "board_id", boardID, "user_id", req.UserID, "role", member.Role)
	middleware.JSONResponse(w, http.StatusCreated, member)
}

// RemoveMember handles DELETE /api/boards/{id}/members/{userID}
// Deactivates the membership; existing debts are kept. Members may remove
// themselves; removing others needs owner or admin. The owner cannot be removed.
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	boardID := r.PathValue("id")
	targetID := r.PathValue("userID")

	caller, ok := requireActiveMember(w, r, h.db, boardID, userID)
	if !ok {
		return
	}
	if targetID != userID && !caller.CanManage() {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only owners and admins can remove members")
		return
	}

	target, err := getMember(r.Context(), h.db, boardID, targetID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !target.IsActive) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Member not found")
		return
	}
	if err != nil {
		slog.Error("failed to query member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if target.Role == models.RoleOwner {
		middleware.ErrorResponse(w, http.StatusBadRequest, "The board owner cannot be removed")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE board_member SET is_active = $1 WHERE board_id = $2 AND user_id = $3
	`, false, boardID, targetID)
	if err != nil {
		slog.Error("failed to deactivate member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove member")
		return
	}

	slog.Info("member removed", "board_id", boardID, "user_id", targetID, "by", userID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Member removed"})
}
