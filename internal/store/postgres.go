package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. The schema is created by
// database.DB.Migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) LoadModules(ctx context.Context) ([]quiz.Module, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT m.name, q.id::text, q.text, q.options, q.correct
		 FROM modules m
		 LEFT JOIN questions q ON q.module_id = m.id
		 ORDER BY m.id ASC, q.seq ASC`,
	)
	if err != nil {
		return nil, classify("query modules", err)
	}
	defer rows.Close()

	var modules []quiz.Module
	for rows.Next() {
		var name string
		var id, text *string
		var options []string
		var correct *int16
		if err := rows.Scan(&name, &id, &text, &options, &correct); err != nil {
			return nil, classify("scan module", err)
		}
		if len(modules) == 0 || modules[len(modules)-1].Name != name {
			modules = append(modules, quiz.Module{Name: name, Questions: []quiz.Question{}})
		}
		if id == nil {
			continue
		}
		m := &modules[len(modules)-1]
		m.Questions = append(m.Questions, quiz.Question{
			ID:      *id,
			Text:    deref(text),
			Options: options,
			Correct: int(derefInt16(correct)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate modules", err)
	}
	if modules == nil {
		modules = []quiz.Module{}
	}
	return modules, nil
}

func (s *PostgresStore) ModuleNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT name FROM modules ORDER BY id ASC`)
	if err != nil {
		return nil, classify("query module names", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify("collect module names", err)
	}
	return names, nil
}

func (s *PostgresStore) AddModule(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &quiz.ValidationError{Field: "module", Message: "module name is required"}
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`INSERT INTO modules (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		name,
	)
	if err != nil {
		return classify("insert module", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", name, ErrModuleExists)
	}
	return nil
}

func (s *PostgresStore) SaveQuestion(ctx context.Context, module string, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}
	if q.ID == "" {
		q.ID = newQuestionID()
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, module_id, text, options, correct)
		 SELECT $1::uuid, m.id, $3, $4, $5
		 FROM modules m
		 WHERE m.name = $2`,
		q.ID,
		module,
		q.Text,
		q.Options,
		q.Correct,
	)
	if err != nil {
		return quiz.Question{}, classify("insert question", err)
	}
	if cmd.RowsAffected() == 0 {
		return quiz.Question{}, fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	return q, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, module, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s in %s: %w", id, module, ErrQuestionNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM questions q
		 USING modules m
		 WHERE q.module_id = m.id
		   AND m.name = $1
		   AND q.id = $2::uuid`,
		module,
		id,
	)
	if err != nil {
		return classify("delete question", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM modules WHERE name = $1)`, module,
	).Scan(&exists); err != nil {
		return classify("lookup module", err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	return fmt.Errorf("%s in %s: %w", id, module, ErrQuestionNotFound)
}

func (s *PostgresStore) LoadUser(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	users, err := s.queryUsers(ctx, `WHERE u.username = $1`, username)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	return &users[0], nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`INSERT INTO users (username, password_hash, moderator, xp, correct_count, wrong_count)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (username) DO NOTHING`,
			u.Username, u.PasswordHash, u.Moderator, u.XP, u.Correct, u.Wrong,
		)
		if err != nil {
			return classify("insert user", err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", u.Username, ErrUserExists)
		}
		return writeUserSets(ctx, tx, u)
	})
}

// SaveUser upserts the user row and adds achievement and unlock rows in one
// transaction. Rows are never removed from either set.
func (s *PostgresStore) SaveUser(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (username, password_hash, moderator, xp, correct_count, wrong_count)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (username) DO UPDATE SET
			   password_hash = EXCLUDED.password_hash,
			   moderator     = EXCLUDED.moderator,
			   xp            = EXCLUDED.xp,
			   correct_count = EXCLUDED.correct_count,
			   wrong_count   = EXCLUDED.wrong_count,
			   updated_at    = NOW()`,
			u.Username, u.PasswordHash, u.Moderator, u.XP, u.Correct, u.Wrong,
		); err != nil {
			return classify("upsert user", err)
		}
		return writeUserSets(ctx, tx, u)
	})
}

func (s *PostgresStore) UnlockModule(ctx context.Context, username, module string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists); err != nil {
		return classify("lookup user", err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO user_unlocked_modules (username, module_name)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		username, module,
	); err != nil {
		return classify("unlock module", err)
	}
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	return s.queryUsers(ctx, "")
}

// Close is a no-op; the pool belongs to database.DB.
func (s *PostgresStore) Close() error { return nil }

func (s *PostgresStore) queryUsers(ctx context.Context, where string, args ...any) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.username, u.password_hash, u.moderator, u.xp, u.correct_count, u.wrong_count,
		        COALESCE((SELECT array_agg(a.achievement_id ORDER BY a.seq)
		                  FROM user_achievements a WHERE a.username = u.username), '{}'::text[]),
		        COALESCE((SELECT array_agg(m.module_name ORDER BY m.seq)
		                  FROM user_unlocked_modules m WHERE m.username = u.username), '{}'::text[])
		 FROM users u
		 `+where+`
		 ORDER BY u.username ASC`,
		args...,
	)
	if err != nil {
		return nil, classify("query users", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.Username,
			&u.PasswordHash,
			&u.Moderator,
			&u.XP,
			&u.Correct,
			&u.Wrong,
			&u.Achievements,
			&u.Unlocked,
		); err != nil {
			return nil, classify("scan user", err)
		}
		users = append(users, u.Clone())
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate users", err)
	}
	return users, nil
}

func writeUserSets(ctx context.Context, tx pgx.Tx, u *User) error {
	for _, id := range u.Achievements {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_achievements (username, achievement_id)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			u.Username, id,
		); err != nil {
			return classify("insert achievement", err)
		}
	}
	for _, module := range u.Unlocked {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_unlocked_modules (username, module_name)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			u.Username, module,
		); err != nil {
			return classify("insert unlock", err)
		}
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// classify marks everything that is not a server-side SQL error as
// ErrStoreUnavailable.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return unavailable(op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt16(v *int16) int16 {
	if v == nil {
		return 0
	}
	return *v
}
