// Command migrate copies questions and users from the JSON files into
// PostgreSQL and upgrades plaintext passwords to bcrypt.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/pai-quiz/internal/account"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// Module names used before the catalog was reorganised.
var moduleRenames = map[string]string{
	"Podstawy":    "Agile_Podstawy",
	"Technologia": "Scrum",
	"Nauka":       "Praktyki",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	fmt.Fprintf(out, "Migrating %s and %s to PostgreSQL\n", cfg.Store.QuestionsFile, cfg.Store.UsersFile)

	db, err := database.Open(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("cannot connect to the database (check QUIZ_DATABASE_URL): %w", err)
	}
	defer db.Close()

	dst, err := store.NewPostgresStore(db.Pool)
	if err != nil {
		return err
	}
	src := store.NewFileStore(cfg.Store.QuestionsFile, cfg.Store.UsersFile)

	sum, err := migrate(ctx, src, dst, cfg.Game.BcryptCost, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Migration finished: %d modules, %d questions, %d users, %d passwords upgraded.\n",
		sum.Modules, sum.Questions, sum.Users, len(sum.Passwords.Hashed))
	if n := len(sum.Passwords.Unmigratable); n > 0 {
		fmt.Fprintf(out, "%d users have legacy password digests; a moderator must set new passwords (Moderator tools, Reset password): %v\n", n, sum.Passwords.Unmigratable)
	}
	fmt.Fprintln(out, "The JSON files can be kept as a backup.")
	return nil
}

type summary struct {
	Modules   int
	Questions int
	Users     int
	Passwords account.MigrationReport
}

func renameModule(name string) string {
	if renamed, ok := moduleRenames[name]; ok {
		return renamed
	}
	return name
}

func renameAchievement(id string) string {
	for old, renamed := range moduleRenames {
		if id == "perfection_"+old {
			return "perfection_" + renamed
		}
	}
	return id
}

// migrate copies src into dst. It is safe to run more than once.
func migrate(ctx context.Context, src, dst store.Store, cost int, out io.Writer) (summary, error) {
	var sum summary

	modules, err := src.LoadModules(ctx)
	if err != nil {
		return sum, fmt.Errorf("read questions: %w", err)
	}
	for _, m := range modules {
		name := renameModule(m.Name)
		if err := dst.AddModule(ctx, name); err != nil && !errors.Is(err, store.ErrModuleExists) {
			return sum, fmt.Errorf("add module %s: %w", name, err)
		}
		sum.Modules++
		fmt.Fprintf(out, "  module %s\n", name)

		existing, err := store.FindModule(ctx, dst, name)
		if err != nil {
			return sum, err
		}
		have := make(map[string]bool, len(existing.Questions))
		for _, q := range existing.Questions {
			have[q.ID] = true
		}

		for _, q := range m.Questions {
			if have[q.ID] {
				continue
			}
			if _, err := dst.SaveQuestion(ctx, name, q); err != nil {
				fmt.Fprintf(out, "    skipped question %q: %v\n", q.Text, err)
				continue
			}
			sum.Questions++
		}
	}

	users, err := src.ListUsers(ctx)
	if err != nil {
		return sum, fmt.Errorf("read users: %w", err)
	}
	for i := range users {
		u := &users[i]
		for j, m := range u.Unlocked {
			u.Unlocked[j] = renameModule(m)
		}
		for j, a := range u.Achievements {
			u.Achievements[j] = renameAchievement(a)
		}

		err := dst.CreateUser(ctx, u)
		if errors.Is(err, store.ErrUserExists) {
			err = dst.SaveUser(ctx, u)
		}
		if err != nil {
			return sum, fmt.Errorf("migrate user %s: %w", u.Username, err)
		}
		for _, m := range u.Unlocked {
			if err := dst.UnlockModule(ctx, u.Username, m); err != nil {
				return sum, fmt.Errorf("unlock %s for %s: %w", m, u.Username, err)
			}
		}
		sum.Users++
		fmt.Fprintf(out, "  user %s\n", u.Username)
	}

	sum.Passwords, err = account.MigrateLegacyPasswords(ctx, dst, cost)
	if err != nil {
		return sum, fmt.Errorf("migrate passwords: %w", err)
	}
	slog.Info("migration complete",
		"modules", sum.Modules,
		"questions", sum.Questions,
		"users", sum.Users,
		"passwords_upgraded", len(sum.Passwords.Hashed),
	)
	return sum, nil
}
