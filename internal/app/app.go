// Package app is the screen state machine between a chat channel and the
// quiz core. Each inbound line advances at most one step of state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-quiz/internal/account"
	"github.com/p-n-ai/pai-quiz/internal/chat"
	"github.com/p-n-ai/pai-quiz/internal/leaderboard"
	"github.com/p-n-ai/pai-quiz/internal/manage"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// ErrQuit is returned by ProcessMessage when the player asks to quit.
var ErrQuit = errors.New("quit requested")

const (
	defaultLeaderboardSize = 5
	defaultReportPath      = "quiz-report.xlsx"
)

// Config holds dependencies for the application.
type Config struct {
	Store           store.Store
	Accounts        *account.Service
	Engine          *progress.Engine
	Manage          *manage.Service
	Board           *leaderboard.Board
	LeaderboardSize int        // rows shown on the leaderboard (default 5)
	ReportPath      string     // default export path (default quiz-report.xlsx)
	Rand            *rand.Rand // shuffling source; nil seeds randomly

	// Prepare readies storage (schema, seed data). Until it succeeds it is
	// retried before each input, and actions report the store as unavailable.
	Prepare func(ctx context.Context) error
}

// App holds per-user screen state.
type App struct {
	store      store.Store
	accounts   *account.Service
	engine     *progress.Engine
	manage     *manage.Service
	board      *leaderboard.Board
	boardSize  int
	reportPath string
	rng        *rand.Rand
	prepare    func(ctx context.Context) error

	mu       sync.Mutex
	ready    bool
	sessions map[string]*session
}

// New creates the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil || cfg.Accounts == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("store, accounts and engine are required")
	}
	mgr := cfg.Manage
	if mgr == nil {
		mgr = manage.NewService(cfg.Accounts, cfg.Store)
	}
	board := cfg.Board
	if board == nil {
		board = leaderboard.NewBoard(cfg.Store, nil)
	}
	size := cfg.LeaderboardSize
	if size <= 0 {
		size = defaultLeaderboardSize
	}
	reportPath := cfg.ReportPath
	if reportPath == "" {
		reportPath = defaultReportPath
	}
	return &App{
		store:      cfg.Store,
		accounts:   cfg.Accounts,
		engine:     cfg.Engine,
		manage:     mgr,
		board:      board,
		boardSize:  size,
		reportPath: reportPath,
		rng:        cfg.Rand,
		prepare:    cfg.Prepare,
		sessions:   make(map[string]*session),
	}, nil
}

// Prepare runs the storage preparation if it has not yet succeeded.
func (a *App) Prepare(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureReady(ctx)
}

func (a *App) ensureReady(ctx context.Context) error {
	if a.ready || a.prepare == nil {
		return nil
	}
	if err := a.prepare(ctx); err != nil {
		return err
	}
	a.ready = true
	slog.Info("storage ready")
	return nil
}

// Greeting returns the first screen shown to a new player.
func (a *App) Greeting() string {
	return welcomeText("")
}

// ProcessMessage handles one line of input and returns the next screen.
// It returns ErrQuit when the player quits; other failures are reported in
// the returned text.
func (a *App) ProcessMessage(ctx context.Context, msg chat.InboundMessage) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.session(msg.UserID)
	input := strings.TrimSpace(msg.Text)
	if s.takesSecret() {
		input = strings.TrimRight(msg.Text, "\r\n")
	}

	slog.Debug("processing input",
		"channel", msg.Channel,
		"user_id", msg.UserID,
		"screen", s.screen.String(),
	)

	if !s.screen.takesText() && strings.EqualFold(input, "quit") {
		if s.user != nil {
			slog.Info("player quit", "username", s.user.Username)
		}
		return "Goodbye!", ErrQuit
	}

	if err := a.ensureReady(ctx); err != nil {
		slog.Warn("storage not ready", "error", err)
	}

	switch s.screen {
	case screenWelcome:
		return a.handleWelcome(s, input), nil
	case screenLoginUsername, screenLoginPassword:
		return a.handleLogin(ctx, s, input), nil
	case screenRegisterUsername, screenRegisterPassword:
		return a.handleRegister(ctx, s, input), nil
	case screenMenu:
		return a.handleMenu(ctx, s, input), nil
	case screenPickModule:
		return a.handlePickModule(ctx, s, input), nil
	case screenQuiz:
		return a.handleQuiz(ctx, s, input), nil
	case screenModerator:
		return a.handleModerator(ctx, s, input), nil
	case screenModPickModule:
		return a.handleModPickModule(ctx, s, input), nil
	case screenAddModule:
		return a.handleAddModule(ctx, s, input), nil
	case screenAddQuestion:
		return a.handleAddQuestion(ctx, s, input), nil
	case screenDeleteQuestion:
		return a.handleDeleteQuestion(ctx, s, input), nil
	case screenExport:
		return a.handleExport(ctx, s, input), nil
	case screenResetPassword:
		return a.handleResetPassword(ctx, s, input), nil
	default:
		s.reset()
		return welcomeText(""), nil
	}
}

func (a *App) session(userID string) *session {
	s, ok := a.sessions[userID]
	if !ok {
		s = &session{}
		a.sessions[userID] = s
	}
	return s
}

// describe turns an error into text for the player.
func describe(err error) string {
	var verr *quiz.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Invalid input: " + verr.Error()
	case errors.Is(err, account.ErrAuth):
		return "Invalid username or password."
	case errors.Is(err, account.ErrForbidden):
		return "Moderator access required."
	case errors.Is(err, quiz.ErrEmptyModule):
		return "This module has no questions yet."
	case errors.Is(err, store.ErrStoreUnavailable):
		slog.Error("store unavailable", "error", err)
		return "Storage is unavailable right now. Please try again."
	case errors.Is(err, store.ErrModuleNotFound):
		return "That module no longer exists."
	case errors.Is(err, store.ErrModuleExists):
		return "A module with that name already exists."
	case errors.Is(err, store.ErrUserNotFound):
		return "No such user."
	case errors.Is(err, store.ErrQuestionNotFound):
		return "That question no longer exists."
	default:
		slog.Error("unexpected error", "error", err)
		return "Something went wrong. Please try again."
	}
}
