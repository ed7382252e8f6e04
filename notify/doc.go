// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify tells board members about ledger changes.

Handlers dispatch after the ledger transaction has committed, so a failed
notification never undoes an expense or payment:

	h.notifier.Dispatch(ctx, notify.Event{
		BoardID: exp.BoardID,
		ActorID: userID,
		Kind:    models.NotifyExpenseCreated,
		Message: "Alice added Groceries (" + notify.FormatAmount(exp.Amount) + ")",
	})

SQLDispatcher writes one notification row per recipient. Noop discards
events.
*/
package notify
