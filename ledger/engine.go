// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/splitboard/metrics"
	"github.com/danielhkuo/splitboard/models"
)

// Engine owns every mutation of debts. Each public method runs as one unit
// of work on the injected Store.
type Engine struct {
	store Store
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock replaces the time source used for created_at, updated_at and paid_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the generator used for new expense and debt ids.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run executes fn in a transaction. Errors that are not already an *Error
// become KindTransaction; either way the transaction has been rolled back.
func (e *Engine) run(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := e.store.WithinTx(ctx, fn)
	if err == nil {
		metrics.Operations.WithLabelValues(op, "ok").Inc()
		return nil
	}

	var le *Error
	if !errors.As(err, &le) {
		le = &Error{Kind: KindTransaction, Op: op, Msg: "transaction rolled back", Err: err}
		err = le
	}
	metrics.Operations.WithLabelValues(op, le.Kind.String()).Inc()
	return err
}

// observeSettlement records debt changes once their transaction has committed.
func observeSettlement(created, closed, reduced int, offset decimal.Decimal) {
	metrics.DebtsCreated.Add(float64(created))
	metrics.DebtsClosed.Add(float64(closed))
	metrics.DebtsReduced.Add(float64(reduced))
	if offset.IsPositive() {
		metrics.OffsetAmount.Add(offset.InexactFloat64())
	}
}

// requireUser maps a missing user to KindNotFound.
func requireUser(ctx context.Context, tx Tx, op, id, role string) (models.User, error) {
	u, err := tx.GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, notFoundErr(op, role+" not found")
	}
	return u, err
}

// requireActiveMember fails with KindValidation when userID cannot act in boardID.
func requireActiveMember(ctx context.Context, tx Tx, op, boardID, userID string) (models.BoardMember, error) {
	m, err := tx.GetMember(ctx, boardID, userID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !m.IsActive) {
		return models.BoardMember{}, validationErr(op, "user "+userID+" is not an active member of board "+boardID)
	}
	return m, err
}

// resolveBoards narrows requested to the boards userID is active in. An
// empty request means all of them. A requested board outside that set is
// rejected, as is an empty result.
func resolveBoards(ctx context.Context, tx Tx, op, userID string, requested []string) ([]string, error) {
	boards, err := accessibleBoards(ctx, tx, op, userID, requested)
	if err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return nil, validationErr(op, "no accessible boards")
	}
	return boards, nil
}

// accessibleBoards is resolveBoards without the empty check, for reads.
func accessibleBoards(ctx context.Context, tx Tx, op, userID string, requested []string) ([]string, error) {
	active, err := tx.ActiveBoardIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return active, nil
	}

	allowed := make(map[string]bool, len(active))
	for _, id := range active {
		allowed[id] = true
	}
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		if !allowed[id] {
			return nil, validationErr(op, "no access to board "+id)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
