// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the splitboard API server.

Splitboard keeps a shared-household expense ledger. Members of a board add
expenses; each expense is split evenly across the board's active members and
netted against what the payer already owes them. Payments and automatic
offsets settle debts without ever losing track of the original amounts.

# Starting the Server

With no configuration the server uses a local SQLite file:

	go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (required for postgres)
  - CONFIG_FILE (-c): Optional TOML file
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)
  - METRICS_ENABLED (-metrics): Serve /metrics (default: true)

A .env file in the working directory is read first.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - ledger: Balance, split, offset, payment and auto-offset engine
  - store: database/sql implementation of the ledger's store
  - handlers: HTTP request handlers (boards, expenses, debts, notifications)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request ids, JSON helpers
  - notify: In-app notifications
  - metrics: Prometheus collectors
  - models: Domain, request and response types
  - auth: Caller identity and id generation
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
