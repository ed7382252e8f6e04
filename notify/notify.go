// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is something members of a board should hear about.
type Event struct {
	BoardID string
	ActorID string
	Kind    string
	Message string
	// UserIDs lists explicit recipients. When empty every active member of
	// BoardID except the actor is notified.
	UserIDs []string
}

// Dispatcher delivers events. Delivery is best-effort: failures are logged
// and never reach the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Dispatch(context.Context, Event) {}

// SQLDispatcher stores events as in-app notifications.
type SQLDispatcher struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLDispatcher(db *sql.DB) *SQLDispatcher {
	return &SQLDispatcher{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (d *SQLDispatcher) Dispatch(ctx context.Context, ev Event) {
	recipients := ev.UserIDs
	if len(recipients) == 0 {
		var err error
		recipients, err = d.boardRecipients(ctx, ev.BoardID, ev.ActorID)
		if err != nil {
			slog.Error("failed to resolve notification recipients", "board_id", ev.BoardID, "error", err)
			return
		}
	}

	var boardID *string
	if ev.BoardID != "" {
		boardID = &ev.BoardID
	}
	now := d.now()
	for _, userID := range recipients {
		_, err := d.db.ExecContext(ctx, `
			INSERT INTO notification (id, user_id, board_id, kind, message, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), userID, boardID, ev.Kind, ev.Message, false, now)
		if err != nil {
			slog.Error("failed to store notification", "user_id", userID, "kind", ev.Kind, "error", err)
		}
	}
	slog.Debug("notifications dispatched", "kind", ev.Kind, "recipients", len(recipients))
}

func (d *SQLDispatcher) boardRecipients(ctx context.Context, boardID, actorID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT user_id FROM board_member
		WHERE board_id = $1 AND is_active = $2 AND user_id <> $3
		ORDER BY user_id
	`, boardID, true, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FormatAmount renders money for people: thousands separators and two
// decimals, e.g. "1,234.50".
func FormatAmount(amount decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", amount.Round(2).InexactFloat64())
}
