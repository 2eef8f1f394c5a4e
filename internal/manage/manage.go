// Package manage implements moderator operations on modules and questions.
// Every operation re-checks moderator rights when it executes.
package manage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/report"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// Accounts checks moderator rights and replaces passwords.
type Accounts interface {
	RequireModerator(ctx context.Context, username string) (*store.User, error)
	SetPassword(ctx context.Context, username, password string) error
}

// QuestionInput is a question as typed into the add form.
type QuestionInput struct {
	Text    string
	Options [quiz.OptionCount]string
	Correct string // letter A-D
}

// Service runs moderator operations against a store.
type Service struct {
	auth  Accounts
	store store.Store
}

func NewService(auth Accounts, st store.Store) *Service {
	return &Service{auth: auth, store: st}
}

// AddModule creates an empty module at the end of the catalog.
func (s *Service) AddModule(ctx context.Context, actor, name string) error {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &quiz.ValidationError{Field: "module", Message: "name is required"}
	}
	if err := s.store.AddModule(ctx, name); err != nil {
		return err
	}
	slog.Info("module added", "moderator", actor, "module", name)
	return nil
}

// AddQuestion validates in and appends it to module.
func (s *Service) AddQuestion(ctx context.Context, actor, module string, in QuestionInput) (quiz.Question, error) {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return quiz.Question{}, err
	}

	correct, err := quiz.ParseCorrectLetter(in.Correct)
	if err != nil {
		return quiz.Question{}, err
	}
	q := quiz.Question{
		Text:    strings.TrimSpace(in.Text),
		Options: make([]string, 0, quiz.OptionCount),
		Correct: correct,
	}
	for _, opt := range in.Options {
		q.Options = append(q.Options, strings.TrimSpace(opt))
	}
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}

	saved, err := s.store.SaveQuestion(ctx, module, q)
	if err != nil {
		return quiz.Question{}, err
	}
	slog.Info("question added", "moderator", actor, "module", module, "question_id", saved.ID)
	return saved, nil
}

// DeleteQuestion removes the question with the given id.
func (s *Service) DeleteQuestion(ctx context.Context, actor, module, id string) error {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, module, id); err != nil {
		return err
	}
	slog.Info("question deleted", "moderator", actor, "module", module, "question_id", id)
	return nil
}

// DeleteQuestionAt removes the question at the 1-based ordinal shown in
// ListQuestions.
func (s *Service) DeleteQuestionAt(ctx context.Context, actor, module string, ordinal int) (quiz.Question, error) {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return quiz.Question{}, err
	}
	q, err := store.DeleteQuestionAt(ctx, s.store, module, ordinal-1)
	if err != nil {
		return quiz.Question{}, err
	}
	slog.Info("question deleted", "moderator", actor, "module", module, "question_id", q.ID, "ordinal", ordinal)
	return q, nil
}

// ListQuestions returns the questions of module in store order.
func (s *Service) ListQuestions(ctx context.Context, actor, module string) ([]quiz.Question, error) {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return nil, err
	}
	m, err := store.FindModule(ctx, s.store, module)
	if err != nil {
		return nil, err
	}
	return m.Questions, nil
}

// ResetPassword gives username a new password. It is the recovery path for
// accounts whose legacy digest could not be migrated.
func (s *Service) ResetPassword(ctx context.Context, actor, username, password string) error {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if err := s.auth.SetPassword(ctx, username, password); err != nil {
		return err
	}
	slog.Info("password reset", "moderator", actor, "username", username)
	return nil
}

// ExportReport writes an XLSX report of all users and questions to path.
func (s *Service) ExportReport(ctx context.Context, actor, path string) error {
	if _, err := s.auth.RequireModerator(ctx, actor); err != nil {
		return err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	modules, err := s.store.LoadModules(ctx)
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	r, err := report.Build(users, modules)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.SaveAs(path); err != nil {
		return err
	}
	slog.Info("report exported", "moderator", actor, "path", path, "users", len(users), "modules", len(modules))
	return nil
}
