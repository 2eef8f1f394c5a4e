package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/p-n-ai/pai-quiz/internal/account"
	"github.com/p-n-ai/pai-quiz/internal/app"
	"github.com/p-n-ai/pai-quiz/internal/catalog"
	"github.com/p-n-ai/pai-quiz/internal/chat"
	"github.com/p-n-ai/pai-quiz/internal/leaderboard"
	"github.com/p-n-ai/pai-quiz/internal/manage"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config:", err)
		os.Exit(1)
	}

	logOut, closeLog, err := openLog(cfg.Log.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(newLogger(cfg.Log, logOut))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		slog.Error("quiz exited with error", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		closeLog()
		os.Exit(1)
	}
	slog.Info("quiz stopped")
}

// openLog opens path for appending. An empty path logs to stderr.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// backend is an opened store with its optional database pool.
type backend struct {
	store store.Store
	db    *database.DB
}

func (b *backend) Close() {
	if b.store != nil {
		_ = b.store.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &backend{store: store.NewMemoryStore()}, nil
	case config.BackendFile:
		return &backend{store: store.NewFileStore(cfg.Store.QuestionsFile, cfg.Store.UsersFile)}, nil
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgresStore(db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &backend{store: st, db: db}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newRanker connects the optional leaderboard cache. Failures disable it.
func newRanker(ctx context.Context, cfg config.CacheConfig) (leaderboard.Ranker, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	c, err := cache.New(ctx, cfg.URL, cfg.Prefix)
	if err != nil {
		slog.Warn("leaderboard cache unavailable, ranking from store", "error", err)
		return nil, func() {}
	}
	slog.Info("leaderboard cache connected")
	return leaderboard.NewRedisRanker(c, ""), func() { _ = c.Close() }
}

// prepareStorage applies the schema when a database is in use, seeds an
// empty store and warms the leaderboard cache.
func prepareStorage(be *backend, seed []quiz.Module, board *leaderboard.Board) func(context.Context) error {
	return func(ctx context.Context) error {
		if be.db != nil {
			if err := be.db.Migrate(ctx); err != nil {
				return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
			}
		}
		if err := store.Seed(ctx, be.store, seed); err != nil {
			return fmt.Errorf("seeding modules: %w", err)
		}
		if err := board.Warm(ctx); err != nil {
			slog.Warn("leaderboard cache not warmed", "error", err)
		}
		return nil
	}
}

// run wires the application and plays until quit, end of input or ctx ends.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loader, err := catalog.NewLoader(cfg.CatalogPath)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	var events progress.EventLogger = progress.NopEventLogger{}
	if be.db != nil {
		events = progress.NewPostgresEventLogger(be.db.Pool)
	}

	engine, err := progress.NewEngine(progress.EngineConfig{
		Users:     be.store,
		Modules:   be.store,
		Catalog:   loader.Catalog(),
		Events:    events,
		CorrectXP: cfg.Game.CorrectXP,
		WrongXP:   cfg.Game.WrongXP,
	})
	if err != nil {
		return err
	}

	accounts, err := account.NewService(account.Config{
		Users:      be.store,
		Modules:    be.store,
		Moderators: cfg.Moderators,
		BcryptCost: cfg.Game.BcryptCost,
	})
	if err != nil {
		return err
	}

	ranker, closeRanker := newRanker(ctx, cfg.Cache)
	defer closeRanker()
	board := leaderboard.NewBoard(be.store, ranker)

	quizApp, err := app.New(app.Config{
		Store:           be.store,
		Accounts:        accounts,
		Engine:          engine,
		Manage:          manage.NewService(accounts, be.store),
		Board:           board,
		LeaderboardSize: cfg.Game.LeaderboardSize,
		ReportPath:      cfg.ReportPath,
		Prepare:         prepareStorage(be, loader.SeedModules(), board),
	})
	if err != nil {
		return err
	}
	if err := quizApp.Prepare(ctx); err != nil {
		slog.Warn("storage unavailable at startup, retrying on input", "error", err)
	}

	console := chat.NewConsoleChannel(in, out, cfg.Game.WrapWidth)
	gw := chat.NewGateway()
	gw.Register(chat.ConsoleName, console)
	defer gw.StopAll()

	say := func(userID, text string) {
		if err := gw.Send(ctx, chat.OutboundMessage{Channel: chat.ConsoleName, UserID: userID, Text: text}); err != nil {
			slog.Error("failed to send message", "error", err)
		}
	}
	say(chat.ConsoleName, quizApp.Greeting())

	handler := func(msg chat.InboundMessage) {
		reply, err := quizApp.ProcessMessage(ctx, msg)
		say(msg.UserID, reply)
		if errors.Is(err, app.ErrQuit) {
			cancel()
		}
	}
	if err := gw.StartAll(ctx, handler); err != nil {
		return err
	}

	slog.Info("quiz started", "backend", cfg.Store.Backend, "cache", ranker != nil)
	select {
	case <-ctx.Done():
	case <-console.Done():
	}
	return nil
}
