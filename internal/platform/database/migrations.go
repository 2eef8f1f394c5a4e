package database

import (
	"context"
	"fmt"
	"log/slog"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS modules (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id         UUID PRIMARY KEY,
		module_id  INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		seq        BIGSERIAL,
		text       TEXT NOT NULL,
		options    TEXT[] NOT NULL,
		correct    SMALLINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT questions_four_options CHECK (array_length(options, 1) = 4),
		CONSTRAINT questions_correct_range CHECK (correct BETWEEN 0 AND 3)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_module_seq ON questions(module_id, seq)`,
	`CREATE TABLE IF NOT EXISTS users (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		moderator     BOOLEAN NOT NULL DEFAULT FALSE,
		xp            INTEGER NOT NULL DEFAULT 0,
		correct_count INTEGER NOT NULL DEFAULT 0,
		wrong_count   INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_xp_non_negative CHECK (xp >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_xp ON users(xp DESC)`,
	`CREATE TABLE IF NOT EXISTS user_achievements (
		username       TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
		achievement_id TEXT NOT NULL,
		seq            BIGSERIAL,
		granted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (username, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_unlocked_modules (
		username    TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
		module_name TEXT NOT NULL,
		seq         BIGSERIAL,
		unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (username, module_name)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id         BIGSERIAL PRIMARY KEY,
		username   TEXT NOT NULL,
		event_type TEXT NOT NULL,
		data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_username_created ON events(username, created_at DESC)`,
}

// Migrate creates the quiz schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	slog.Info("database schema ready", "statements", len(schema))
	return nil
}
