// Package progress awards experience, evaluates achievements and unlocks
// modules after quizzes.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-n-ai/pai-quiz/internal/catalog"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

const (
	defaultCorrectXP = 15
	defaultWrongXP   = 5

	correctThreshold = 25
	wrongThreshold   = 10
)

// ModuleOrder lists module names in catalog order.
type ModuleOrder interface {
	ModuleNames(ctx context.Context) ([]string, error)
}

// EngineConfig holds dependencies for the progression engine.
type EngineConfig struct {
	Users     store.UserStore
	Modules   ModuleOrder
	Catalog   *catalog.Catalog
	Events    EventLogger
	CorrectXP int // xp for a correct answer (default 15)
	WrongXP   int // xp for a wrong answer (default 5)
}

// Engine applies progression rules to users and persists the result.
type Engine struct {
	users     store.UserStore
	modules   ModuleOrder
	catalog   *catalog.Catalog
	events    EventLogger
	correctXP int
	wrongXP   int
}

// Outcome reports what a finished quiz changed for the user.
type Outcome struct {
	Granted  []catalog.Achievement
	Unlocked string
	Level    int
	Perfect  bool
}

// NewEngine creates a progression engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.Modules == nil {
		return nil, fmt.Errorf("module order is required")
	}
	cat := cfg.Catalog
	if cat == nil {
		cat, _ = catalog.NewCatalog(nil)
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	correctXP := cfg.CorrectXP
	if correctXP == 0 {
		correctXP = defaultCorrectXP
	}
	wrongXP := cfg.WrongXP
	if wrongXP == 0 {
		wrongXP = defaultWrongXP
	}
	return &Engine{
		users:     cfg.Users,
		modules:   cfg.Modules,
		catalog:   cat,
		events:    events,
		correctXP: correctXP,
		wrongXP:   wrongXP,
	}, nil
}

// Catalog returns the achievement catalog the engine grants from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// RecordAnswer awards xp for one answer, bumps the matching counter and
// persists the user. It returns the xp gained.
func (e *Engine) RecordAnswer(ctx context.Context, u *store.User, correct bool) (int, error) {
	gained := e.wrongXP
	if correct {
		gained = e.correctXP
		u.Correct++
	} else {
		u.Wrong++
	}
	u.XP += gained

	if err := e.users.SaveUser(ctx, u); err != nil {
		return gained, fmt.Errorf("save answer for %s: %w", u.Username, err)
	}

	e.logEvent(ctx, Event{
		Username:  u.Username,
		EventType: EventAnswerRecorded,
		Data:      map[string]any{"correct": correct, "xp_gained": gained, "xp": u.XP},
	})
	return gained, nil
}

// EvaluatePostQuiz grants achievements earned by the finished quiz and, on
// a perfect score, unlocks the module that follows in catalog order.
func (e *Engine) EvaluatePostQuiz(ctx context.Context, u *store.User, module string, score, total int) (Outcome, error) {
	out := Outcome{Perfect: total > 0 && score == total}

	if u.Correct >= correctThreshold {
		e.grant(u, catalog.Correct25, &out)
	}
	if u.Wrong >= wrongThreshold {
		e.grant(u, catalog.Wrong10, &out)
	}
	e.grant(u, catalog.FirstQuiz, &out)

	var orderErr error
	if out.Perfect {
		e.grant(u, catalog.PerfectionID(module), &out)

		next, err := e.nextModule(ctx, module)
		if err != nil {
			orderErr = err
		} else if next != "" && u.Unlock(next) {
			out.Unlocked = next
		}
	}
	out.Level = LevelFor(u.XP)

	if err := e.users.SaveUser(ctx, u); err != nil {
		return out, fmt.Errorf("save quiz result for %s: %w", u.Username, err)
	}
	if out.Unlocked != "" {
		if err := e.users.UnlockModule(ctx, u.Username, out.Unlocked); err != nil {
			return out, fmt.Errorf("unlock %s for %s: %w", out.Unlocked, u.Username, err)
		}
	}

	e.logEvent(ctx, Event{
		Username:  u.Username,
		EventType: EventQuizCompleted,
		Data:      map[string]any{"module": module, "score": score, "total": total},
	})
	for _, a := range out.Granted {
		e.logEvent(ctx, Event{
			Username:  u.Username,
			EventType: EventAchievementGranted,
			Data:      map[string]any{"achievement": a.ID},
		})
	}
	if out.Unlocked != "" {
		e.logEvent(ctx, Event{
			Username:  u.Username,
			EventType: EventModuleUnlocked,
			Data:      map[string]any{"module": out.Unlocked, "after": module},
		})
		slog.Info("module unlocked", "username", u.Username, "module", out.Unlocked)
	}

	if orderErr != nil {
		return out, fmt.Errorf("resolve module after %s: %w", module, orderErr)
	}
	return out, nil
}

func (e *Engine) grant(u *store.User, id string, out *Outcome) {
	if !u.GrantAchievement(id) {
		return
	}
	a, ok := e.catalog.Lookup(id)
	if !ok {
		a = catalog.Achievement{ID: id, Name: id}
	}
	out.Granted = append(out.Granted, a)
}

func (e *Engine) nextModule(ctx context.Context, module string) (string, error) {
	names, err := e.modules.ModuleNames(ctx)
	if err != nil {
		return "", err
	}
	i := slices.Index(names, module)
	if i < 0 || i+1 >= len(names) {
		return "", nil
	}
	return names[i+1], nil
}

func (e *Engine) logEvent(ctx context.Context, ev Event) {
	if err := e.events.LogEvent(ctx, ev); err != nil {
		slog.Warn("failed to log event", "type", ev.EventType, "username", ev.Username, "error", err)
	}
}
