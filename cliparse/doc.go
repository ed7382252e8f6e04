// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string (default for sqlite: file:splitboard.db)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - ConfigFile: Optional TOML file
  - LogLevel: debug, info, warn or error (default: info)
  - MetricsEnabled: Serve /metrics (default: true)

# CLI Flags

	-p          Server port
	-d          Database URL
	-t          Database type
	-c          TOML config file
	-log-level  Log level
	-metrics    true or false

# Environment Variables

Flags fall back to environment variables:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	CONFIG_FILE     → -c
	LOG_LEVEL       → -log-level
	METRICS_ENABLED → -metrics

A .env file in the working directory is loaded first; variables already set
in the environment are not overwritten.

# Config File

Values not given by flag or environment are read from the TOML file:

	[server]
	port = 8080

	[database]
	type = "postgres"
	url = "postgres://localhost/splitboard?sslmode=disable"

	[metrics]
	enabled = false

	[log]
	level = "debug"

# Validation

ParseFlags returns an error if:

  - PostgreSQL is selected without a database URL
  - The database type, log level or metrics value is not recognised
  - The config file cannot be read
*/
package cliparse
