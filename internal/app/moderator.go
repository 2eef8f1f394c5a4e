package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/account"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

var optionPrompts = [quiz.OptionCount]string{"Option A:", "Option B:", "Option C:", "Option D:"}

func moderatorText(notice string) string {
	return blocks(notice, `=== Moderator tools ===
1) Add module
2) Add question
3) Delete question
4) List questions
5) Export report
6) Reset password
0) Back`)
}

// modResult returns to the moderator menu with notice, or to the main menu
// when rights were revoked.
func (a *App) modResult(s *session, err error, notice string) string {
	if err != nil {
		if errors.Is(err, account.ErrForbidden) {
			s.toMenu()
			return menuText(s.user, false, describe(err))
		}
		notice = describe(err)
	}
	s.toMenu()
	s.screen = screenModerator
	return moderatorText(notice)
}

func (a *App) handleModerator(ctx context.Context, s *session, input string) string {
	switch input {
	case "1":
		s.screen = screenAddModule
		return "New module name (empty to cancel):"
	case "2", "3", "4":
		names, err := a.store.ModuleNames(ctx)
		if err != nil {
			return moderatorText(describe(err))
		}
		if len(names) == 0 {
			return moderatorText("No modules yet. Add one first.")
		}
		s.action = map[string]modAction{"2": modAddQuestion, "3": modDeleteQuestion, "4": modListQuestions}[input]
		s.modules = names
		s.screen = screenModPickModule
		return moduleListText("Choose a module:", names, nil)
	case "5":
		s.screen = screenExport
		return fmt.Sprintf("Report path (empty for %s):", a.reportPath)
	case "6":
		s.screen = screenResetPassword
		return "Username to reset (empty to cancel):"
	case "0", "back":
		s.toMenu()
		return menuText(s.user, a.accounts.IsModerator(s.user), "")
	default:
		return moderatorText("")
	}
}

func (a *App) handleModPickModule(ctx context.Context, s *session, input string) string {
	i, ok := pick(input, len(s.modules))
	if !ok {
		return moduleListText("Choose a module:", s.modules, nil)
	}
	if i == 0 {
		return a.modResult(s, nil, "")
	}
	module := s.modules[i-1]

	switch s.action {
	case modAddQuestion:
		s.draft = questionDraft{module: module}
		s.screen = screenAddQuestion
		return fmt.Sprintf("Adding a question to %s.\nQuestion text (empty to cancel):", module)
	case modDeleteQuestion:
		qs, err := a.manage.ListQuestions(ctx, s.user.Username, module)
		if err != nil {
			return a.modResult(s, err, "")
		}
		if len(qs) == 0 {
			return a.modResult(s, nil, module+" has no questions.")
		}
		s.module = module
		s.listing = qs
		s.screen = screenDeleteQuestion
		return blocks(questionListText(module, qs), "Number to delete (0 to cancel):")
	default:
		qs, err := a.manage.ListQuestions(ctx, s.user.Username, module)
		if err != nil {
			return a.modResult(s, err, "")
		}
		return a.modResult(s, nil, questionListText(module, qs))
	}
}

func (a *App) handleAddModule(ctx context.Context, s *session, input string) string {
	if input == "" {
		return a.modResult(s, nil, "Cancelled.")
	}
	if err := a.manage.AddModule(ctx, s.user.Username, input); err != nil {
		return a.modResult(s, err, "")
	}
	return a.modResult(s, nil, fmt.Sprintf("Module %s added.", input))
}

func (a *App) handleAddQuestion(ctx context.Context, s *session, input string) string {
	d := &s.draft
	switch {
	case d.step == 0:
		if input == "" {
			return a.modResult(s, nil, "Cancelled.")
		}
		d.input.Text = input
		d.step++
		return optionPrompts[0]
	case d.step <= quiz.OptionCount:
		if input == "" {
			return "Options cannot be empty.\n" + optionPrompts[d.step-1]
		}
		d.input.Options[d.step-1] = input
		d.step++
		if d.step <= quiz.OptionCount {
			return optionPrompts[d.step-1]
		}
		return "Correct option (A-D):"
	}

	d.input.Correct = input
	q, err := a.manage.AddQuestion(ctx, s.user.Username, d.module, d.input)
	if err != nil {
		var verr *quiz.ValidationError
		if errors.As(err, &verr) && verr.Field == "correct" {
			return describe(err) + "\nCorrect option (A-D):"
		}
		return a.modResult(s, err, "")
	}
	return a.modResult(s, nil, fmt.Sprintf("Added to %s: %s [%s]", d.module, q.Text, q.CorrectOption()))
}

func (a *App) handleDeleteQuestion(ctx context.Context, s *session, input string) string {
	i, ok := pick(input, len(s.listing))
	if !ok {
		return blocks(questionListText(s.module, s.listing), "Number to delete (0 to cancel):")
	}
	if i == 0 {
		return a.modResult(s, nil, "Cancelled.")
	}

	// Delete by the identifier shown, so edits made since listing cannot
	// shift the target.
	q := s.listing[i-1]
	if err := a.manage.DeleteQuestion(ctx, s.user.Username, s.module, q.ID); err != nil {
		return a.modResult(s, err, "")
	}
	return a.modResult(s, nil, "Deleted: "+q.Text)
}

func (a *App) handleExport(ctx context.Context, s *session, input string) string {
	path := strings.TrimSpace(input)
	if path == "" {
		path = a.reportPath
	}
	if err := a.manage.ExportReport(ctx, s.user.Username, path); err != nil {
		return a.modResult(s, err, "")
	}
	return a.modResult(s, nil, "Report written to "+path)
}

func (a *App) handleResetPassword(ctx context.Context, s *session, input string) string {
	if s.target == "" {
		if input == "" {
			return a.modResult(s, nil, "Cancelled.")
		}
		s.target = input
		return fmt.Sprintf("New password for %s (at least 6 characters):", input)
	}

	target := s.target
	if err := a.manage.ResetPassword(ctx, s.user.Username, target, input); err != nil {
		var verr *quiz.ValidationError
		if errors.As(err, &verr) && verr.Field == "password" {
			return describe(err) + fmt.Sprintf("\nNew password for %s (at least 6 characters):", target)
		}
		return a.modResult(s, err, "")
	}
	return a.modResult(s, nil, "Password reset for "+target+".")
}
