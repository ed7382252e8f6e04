// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/auth"
	"github.com/danielhkuo/splitboard/cliparse"
	"github.com/danielhkuo/splitboard/db"
	"github.com/danielhkuo/splitboard/models"
	"github.com/danielhkuo/splitboard/store"
)

// SetupTestDB creates a fresh SQLite database with the full schema in a
// temporary directory. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "splitboard.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Open(db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file:splitboard-test.db",
		DatabaseType:   db.TypeSQLite,
		LogLevel:       "info",
		MetricsEnabled: true,
	}
}

// UserHeader returns the identity header map for requests made as userID
func UserHeader(userID string) map[string]string {
	return map[string]string{auth.UserHeader: userID}
}

// CreateTestUser inserts a user and returns its ID
func CreateTestUser(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	userID := auth.GenerateID()
	_, err := db.Exec(`
		INSERT INTO app_user (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, name, userID+"@example.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return userID
}

// CreateTestBoard creates a board owned by ownerID and adds the given users
// as active members, in order. Returns the board ID.
func CreateTestBoard(t *testing.T, db *sql.DB, ownerID string, memberIDs ...string) string {
	t.Helper()

	boardID := auth.GenerateID()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO board (id, name, description, created_by, created_at)
		VALUES ($1, 'Test Board', 'A test board', $2, $3)
	`, boardID, ownerID, now)
	if err != nil {
		t.Fatalf("Failed to create test board: %v", err)
	}

	AddTestMember(t, db, boardID, ownerID, models.RoleOwner)
	for _, id := range memberIDs {
		AddTestMember(t, db, boardID, id, models.RoleMember)
	}
	return boardID
}

// AddTestMember adds an active member to a board
func AddTestMember(t *testing.T, db *sql.DB, boardID, userID, role string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO board_member (board_id, user_id, role, is_active, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, boardID, userID, role, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// DeactivateTestMember marks a membership inactive
func DeactivateTestMember(t *testing.T, db *sql.DB, boardID, userID string) {
	t.Helper()

	_, err := db.Exec(`
		UPDATE board_member SET is_active = $1 WHERE board_id = $2 AND user_id = $3
	`, false, boardID, userID)
	if err != nil {
		t.Fatalf("Failed to deactivate test member: %v", err)
	}
}

// CreateTestExpense inserts an expense row without splitting it and returns its ID
func CreateTestExpense(t *testing.T, db *sql.DB, boardID, paidBy, amount string) string {
	t.Helper()

	expenseID := auth.GenerateID()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO expense (id, board_id, amount, category, description, paid_by, created_by,
			date, is_recurring, frequency, tags, created_at, updated_at)
		VALUES ($1, $2, $3, 'general', 'Test expense', $4, $4, $5, $6, '', '', $5, $5)
	`, expenseID, boardID, decimal.RequireFromString(amount), paidBy, now, false)
	if err != nil {
		t.Fatalf("Failed to create test expense: %v", err)
	}
	return expenseID
}

// CreateTestDebt inserts an open debt from -> to and returns its ID.
// expenseID may be empty.
func CreateTestDebt(t *testing.T, db *sql.DB, boardID, expenseID, from, to, amount string, createdAt time.Time) string {
	t.Helper()

	var expense *string
	if expenseID != "" {
		expense = &expenseID
	}
	d, err := models.NewDebt(boardID, expense, from, to, decimal.RequireFromString(amount))
	if err != nil {
		t.Fatalf("Invalid test debt: %v", err)
	}
	d.ID = auth.GenerateID()
	d.CreatedAt = createdAt.UTC()
	d.UpdatedAt = createdAt.UTC()

	_, err = db.Exec(`
		INSERT INTO debt (`+store.DebtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, d.ID, d.BoardID, d.ExpenseID, d.FromUserID, d.ToUserID, d.Amount,
		d.OriginalAmount, d.PaidAmount, d.IsPaid, d.PaidAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test debt: %v", err)
	}
	return d.ID
}

// GetTestDebt loads a debt by ID
func GetTestDebt(t *testing.T, db *sql.DB, debtID string) models.Debt {
	t.Helper()

	row := db.QueryRow(`SELECT `+store.DebtColumns+` FROM debt WHERE id = $1`, debtID)
	d, err := store.ScanDebt(row)
	if err != nil {
		t.Fatalf("Failed to load test debt %s: %v", debtID, err)
	}
	return d
}

// ListTestDebts loads every debt in a board, oldest first
func ListTestDebts(t *testing.T, db *sql.DB, boardID string) []models.Debt {
	t.Helper()

	rows, err := db.Query(`SELECT `+store.DebtColumns+` FROM debt WHERE board_id = $1 ORDER BY created_at, id`, boardID)
	if err != nil {
		t.Fatalf("Failed to list test debts: %v", err)
	}
	defer rows.Close()

	var out []models.Debt
	for rows.Next() {
		d, err := store.ScanDebt(rows)
		if err != nil {
			t.Fatalf("Failed to scan test debt: %v", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to list test debts: %v", err)
	}
	return out
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
