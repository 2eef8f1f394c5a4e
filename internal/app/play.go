package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// pick parses a 1-based choice from a list of n items. 0 means back.
func pick(input string, n int) (int, bool) {
	i, err := strconv.Atoi(input)
	if err != nil || i < 0 || i > n {
		return 0, false
	}
	return i, true
}

func (a *App) handlePickModule(ctx context.Context, s *session, input string) string {
	i, ok := pick(input, len(s.modules))
	if !ok {
		return moduleListText("Choose a module:", s.modules, s.user)
	}
	if i == 0 {
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), "")
	}

	name := s.modules[i-1]
	if !s.user.IsUnlocked(name) {
		return blocks(
			fmt.Sprintf("%s is locked. Finish the previous module with a perfect score to unlock it.", name),
			moduleListText("Choose a module:", s.modules, s.user),
		)
	}

	m, err := store.FindModule(ctx, a.store, name)
	if err != nil {
		return blocks(describe(err), moduleListText("Choose a module:", s.modules, s.user))
	}
	run, err := quiz.Start(m.Name, m.Questions, a.rng)
	if err != nil {
		return blocks(describe(err), moduleListText("Choose a module:", s.modules, s.user))
	}

	s.quiz = run
	s.screen = screenQuiz
	slog.Info("quiz started", "username", s.user.Username, "module", name, "questions", run.Total())

	p, err := run.Current()
	if err != nil {
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), describe(err))
	}
	return blocks("Module: "+name, questionText(p))
}

// answerIndex accepts a letter A-D or a digit 1-4.
func answerIndex(input string) (int, bool) {
	if i, err := quiz.ParseCorrectLetter(input); err == nil {
		return i, true
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > quiz.OptionCount {
		return 0, false
	}
	return n - 1, true
}

func (a *App) handleQuiz(ctx context.Context, s *session, input string) string {
	p, err := s.quiz.Current()
	if err != nil {
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), describe(err))
	}

	if strings.EqualFold(input, "back") {
		slog.Info("quiz abandoned", "username", s.user.Username, "module", s.quiz.Module())
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), "Quiz abandoned.")
	}

	i, ok := answerIndex(input)
	if !ok || i >= len(p.Options) {
		return blocks("Please answer with A, B, C or D.", questionText(p))
	}

	res, err := s.quiz.Submit(p.Options[i])
	if err != nil {
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), describe(err))
	}

	var feedback string
	gained, err := a.engine.RecordAnswer(ctx, s.user, res.Correct)
	switch {
	case err != nil:
		feedback = describe(err)
	case res.Correct:
		feedback = fmt.Sprintf("Correct! +%d XP", gained)
	default:
		feedback = fmt.Sprintf("Wrong. The answer was: %s. +%d XP", res.CorrectOption, gained)
	}
	a.board.Update(ctx, s.user)

	if !res.Done {
		next, err := s.quiz.Current()
		if err != nil {
			s.toMenu()
			return menuText(s.user, a.accounts.IsModerator(s.user), describe(err))
		}
		return blocks(feedback, questionText(next))
	}

	module, score, total := s.quiz.Module(), s.quiz.Score(), s.quiz.Total()
	out, err := a.engine.EvaluatePostQuiz(ctx, s.user, module, score, total)
	summary := outcomeText(score, total, out)
	if err != nil {
		summary = blocks(summary, describe(err))
	}
	slog.Info("quiz finished",
		"username", s.user.Username,
		"module", module,
		"score", score,
		"total", total,
	)

	s.toMenu()
	return blocks(feedback, summary, menuText(s.user, a.accounts.IsModerator(s.user), ""))
}
