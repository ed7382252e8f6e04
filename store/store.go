// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store implements ledger.Store on database/sql. Queries use $N
// placeholders, which both lib/pq and modernc.org/sqlite accept.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/splitboard/ledger"
	"github.com/danielhkuo/splitboard/models"
)

type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// WithinTx implements ledger.Store.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

// ─── Users & Members ────────────────────────────────────────────────────────

func (t *sqlTx) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, email, created_at FROM app_user WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (t *sqlTx) GetMember(ctx context.Context, boardID, userID string) (models.BoardMember, error) {
	var m models.BoardMember
	err := t.tx.QueryRowContext(ctx, `
		SELECT board_id, user_id, role, is_active, joined_at
		FROM board_member WHERE board_id = $1 AND user_id = $2
	`, boardID, userID).Scan(&m.BoardID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BoardMember{}, models.ErrNotFound
	}
	if err != nil {
		return models.BoardMember{}, fmt.Errorf("failed to query member: %w", err)
	}
	return m, nil
}

func (t *sqlTx) ActiveMembers(ctx context.Context, boardID string) ([]models.BoardMember, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT board_id, user_id, role, is_active, joined_at
		FROM board_member
		WHERE board_id = $1 AND is_active = $2
		ORDER BY joined_at, user_id
	`, boardID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []models.BoardMember
	for rows.Next() {
		var m models.BoardMember
		if err := rows.Scan(&m.BoardID, &m.UserID, &m.Role, &m.IsActive, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *sqlTx) ActiveBoardIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT board_id FROM board_member
		WHERE user_id = $1 AND is_active = $2
		ORDER BY board_id
	`, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan board id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ─── Expenses ───────────────────────────────────────────────────────────────

const expenseColumns = `id, board_id, amount, category, description, paid_by, created_by,
	date, is_recurring, frequency, tags, created_at, updated_at`

func (t *sqlTx) GetExpense(ctx context.Context, id string) (models.Expense, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expense WHERE id = $1`, id)
	e, err := ScanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Expense{}, models.ErrNotFound
	}
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to query expense: %w", err)
	}
	return e, nil
}

func (t *sqlTx) InsertExpense(ctx context.Context, e models.Expense) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO expense (`+expenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.BoardID, e.Amount, e.Category, e.Description, e.PaidBy, e.CreatedBy,
		e.Date, e.IsRecurring, e.Frequency, models.JoinTags(e.Tags), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateExpense(ctx context.Context, e models.Expense) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE expense
		SET amount = $1, category = $2, description = $3, paid_by = $4, date = $5,
		    is_recurring = $6, frequency = $7, tags = $8, updated_at = $9
		WHERE id = $10
	`, e.Amount, e.Category, e.Description, e.PaidBy, e.Date,
		e.IsRecurring, e.Frequency, models.JoinTags(e.Tags), e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return requireRow(res, "expense")
}

func (t *sqlTx) DeleteExpense(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM expense WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireRow(res, "expense")
}

// ─── Debts ──────────────────────────────────────────────────────────────────

const debtColumns = `id, board_id, expense_id, from_user_id, to_user_id, amount,
	original_amount, paid_amount, is_paid, paid_at, created_at, updated_at`

func (t *sqlTx) GetDebt(ctx context.Context, id string) (models.Debt, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debt WHERE id = $1`, id)
	d, err := ScanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Debt{}, models.ErrNotFound
	}
	if err != nil {
		return models.Debt{}, fmt.Errorf("failed to query debt: %w", err)
	}
	return d, nil
}

func (t *sqlTx) DebtsBetween(ctx context.Context, boardID, userA, userB string) ([]models.Debt, error) {
	return t.queryDebts(ctx, `
		SELECT `+debtColumns+` FROM debt
		WHERE board_id = $1 AND is_paid = $2
		  AND ((from_user_id = $3 AND to_user_id = $4) OR (from_user_id = $4 AND to_user_id = $3))
	`, boardID, false, userA, userB)
}

func (t *sqlTx) UnpaidDebts(ctx context.Context, fromUserID, toUserID string, boardIDs []string) ([]models.Debt, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	args := []any{false, fromUserID, toUserID}
	query := `SELECT ` + debtColumns + ` FROM debt
		WHERE is_paid = $1 AND from_user_id = $2 AND to_user_id = $3
		  AND board_id IN (` + placeholders(len(args)+1, len(boardIDs)) + `)`
	return t.queryDebts(ctx, query, appendStrings(args, boardIDs)...)
}

func (t *sqlTx) UnpaidDebtsInvolving(ctx context.Context, userID string, boardIDs []string) ([]models.Debt, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	args := []any{false, userID}
	query := `SELECT ` + debtColumns + ` FROM debt
		WHERE is_paid = $1 AND (from_user_id = $2 OR to_user_id = $2)
		  AND board_id IN (` + placeholders(len(args)+1, len(boardIDs)) + `)`
	return t.queryDebts(ctx, query, appendStrings(args, boardIDs)...)
}

func (t *sqlTx) ExpenseDebts(ctx context.Context, expenseID string) ([]models.Debt, error) {
	return t.queryDebts(ctx, `SELECT `+debtColumns+` FROM debt WHERE expense_id = $1`, expenseID)
}

func (t *sqlTx) InsertDebt(ctx context.Context, d models.Debt) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO debt (`+debtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, d.ID, d.BoardID, d.ExpenseID, d.FromUserID, d.ToUserID, d.Amount,
		d.OriginalAmount, d.PaidAmount, d.IsPaid, d.PaidAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateDebt(ctx context.Context, d models.Debt) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE debt
		SET amount = $1, original_amount = $2, paid_amount = $3, is_paid = $4,
		    paid_at = $5, updated_at = $6
		WHERE id = $7
	`, d.Amount, d.OriginalAmount, d.PaidAmount, d.IsPaid, d.PaidAt, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	return requireRow(res, "debt")
}

func (t *sqlTx) DeleteUnpaidExpenseDebts(ctx context.Context, expenseID string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM debt WHERE expense_id = $1 AND is_paid = $2
	`, expenseID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expense debts: %w", err)
	}
	return res.RowsAffected()
}

func (t *sqlTx) queryDebts(ctx context.Context, query string, args ...any) ([]models.Debt, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	var out []models.Debt
	for rows.Next() {
		d, err := ScanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ─── Scanning ───────────────────────────────────────────────────────────────

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanDebt reads a row selected with the debt column list.
func ScanDebt(s Scanner) (models.Debt, error) {
	var (
		d         models.Debt
		expenseID sql.NullString
		paidAt    sql.NullTime
	)
	err := s.Scan(&d.ID, &d.BoardID, &expenseID, &d.FromUserID, &d.ToUserID, &d.Amount,
		&d.OriginalAmount, &d.PaidAmount, &d.IsPaid, &paidAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return models.Debt{}, err
	}
	if expenseID.Valid {
		d.ExpenseID = &expenseID.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		d.PaidAt = &t
	}
	return d, nil
}

// ScanExpense reads a row selected with the expense column list.
func ScanExpense(s Scanner) (models.Expense, error) {
	var (
		e    models.Expense
		tags string
	)
	err := s.Scan(&e.ID, &e.BoardID, &e.Amount, &e.Category, &e.Description, &e.PaidBy,
		&e.CreatedBy, &e.Date, &e.IsRecurring, &e.Frequency, &tags, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Expense{}, err
	}
	e.Tags = models.SplitTags(tags)
	return e, nil
}

// DebtColumns and ExpenseColumns let handlers select rows ScanDebt and
// ScanExpense understand.
const (
	DebtColumns    = debtColumns
	ExpenseColumns = expenseColumns
)

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(parts, ", ")
}

func appendStrings(args []any, ss []string) []any {
	for _, s := range ss {
		args = append(args, s)
	}
	return args
}

// Compile-time checks.
var (
	_ ledger.Store = (*SQLStore)(nil)
	_ ledger.Tx    = (*sqlTx)(nil)
)
