// Package migrations applies the database schema. Every statement is
// idempotent so Apply can run at each startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0),
		role TEXT NOT NULL DEFAULT 'user',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_idx ON accounts (LOWER(username));
	CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_idx ON accounts (LOWER(email)) WHERE email <> ''`,

	`CREATE TABLE IF NOT EXISTS providers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_url TEXT NOT NULL,
		api_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		upstream_id TEXT NOT NULL,
		provider_id TEXT NOT NULL REFERENCES providers(id),
		type TEXT NOT NULL DEFAULT 'text2img',
		price_per_call DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price_per_call >= 0),
		status TEXT NOT NULL DEFAULT 'active',
		default_width INTEGER NOT NULL DEFAULT 1024,
		default_height INTEGER NOT NULL DEFAULT 1024,
		max_width INTEGER NOT NULL DEFAULT 0,
		max_height INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS models_provider_idx ON models (provider_id)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		secret TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active',
		usage_count BIGINT NOT NULL DEFAULT 0,
		last_used_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS api_keys_account_idx ON api_keys (account_id)`,

	`CREATE TABLE IF NOT EXISTS call_logs (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		api_key_id TEXT NOT NULL DEFAULT '',
		model_id TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		status TEXT NOT NULL,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		response_time_ns BIGINT NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS call_logs_account_idx ON call_logs (account_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS call_logs_created_idx ON call_logs (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		site_name TEXT NOT NULL DEFAULT 'Nekoko AI',
		site_description TEXT NOT NULL DEFAULT '',
		allow_registration BOOLEAN NOT NULL DEFAULT TRUE,
		default_user_balance DOUBLE PRECISION NOT NULL DEFAULT 10,
		admin_password_hash TEXT NOT NULL DEFAULT ''
	);
	INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
}

// Apply executes the schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
