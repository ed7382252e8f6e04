// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for the ledger and the
// HTTP layer. Collectors register with the default registry on init and are
// exposed by the router at /metrics when enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger ─────────────────────────────────────────────────────────────────

// DebtsCreated counts debt rows inserted by splits and offsets.
var DebtsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "debts_created_total",
	Help:      "Total debt rows created.",
})

// DebtsClosed counts debts that reached amount zero.
var DebtsClosed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "debts_closed_total",
	Help:      "Total debts closed by offsets or payments.",
})

// DebtsReduced counts partial reductions.
var DebtsReduced = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "debts_reduced_total",
	Help:      "Total partial reductions applied to debts.",
})

// OffsetAmount sums money cancelled by offsetting.
var OffsetAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "offset_amount_total",
	Help:      "Total amount cancelled by netting opposite-direction debts.",
})

// PaymentAmount sums money applied by partial payments.
var PaymentAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "payment_amount_total",
	Help:      "Total amount applied to debts by payments.",
})

// Operations counts engine operations by outcome.
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "splitboard",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations by name and result.",
}, []string{"op", "result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// RequestDuration tracks handler latency.
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "splitboard",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"method", "route", "status"})
