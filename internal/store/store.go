// Package store persists question modules and user accounts.
//
// Every backend distinguishes "no data" (ErrUserNotFound, ErrModuleNotFound,
// ErrQuestionNotFound) from "store unreachable" (ErrStoreUnavailable).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrModuleNotFound   = errors.New("module not found")
	ErrModuleExists     = errors.New("module already exists")
	ErrQuestionNotFound = errors.New("question not found")
)

// ModuleStore persists modules and their questions. Module order as returned
// by LoadModules and ModuleNames is the catalog order.
type ModuleStore interface {
	LoadModules(ctx context.Context) ([]quiz.Module, error)
	ModuleNames(ctx context.Context) ([]string, error)
	AddModule(ctx context.Context, name string) error
	SaveQuestion(ctx context.Context, module string, q quiz.Question) (quiz.Question, error)
	DeleteQuestion(ctx context.Context, module, id string) error
}

// UserStore persists user accounts keyed by username.
type UserStore interface {
	LoadUser(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	SaveUser(ctx context.Context, u *User) error
	UnlockModule(ctx context.Context, username, module string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// Store is a complete backend.
type Store interface {
	ModuleStore
	UserStore
	Close() error
}

// DeleteQuestionAt deletes the question at ordinal within the module's
// current order. The ordinal is resolved against a fresh read and the
// deletion itself goes through the question's stable ID.
func DeleteQuestionAt(ctx context.Context, s ModuleStore, module string, ordinal int) (quiz.Question, error) {
	m, err := FindModule(ctx, s, module)
	if err != nil {
		return quiz.Question{}, err
	}
	if ordinal < 0 || ordinal >= len(m.Questions) {
		return quiz.Question{}, fmt.Errorf("ordinal %d in %s: %w", ordinal, module, ErrQuestionNotFound)
	}
	q := m.Questions[ordinal]
	if err := s.DeleteQuestion(ctx, module, q.ID); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

// FindModule returns the named module.
func FindModule(ctx context.Context, s ModuleStore, name string) (quiz.Module, error) {
	modules, err := s.LoadModules(ctx)
	if err != nil {
		return quiz.Module{}, err
	}
	for _, m := range modules {
		if m.Name == name {
			return m, nil
		}
	}
	return quiz.Module{}, fmt.Errorf("%s: %w", name, ErrModuleNotFound)
}

// Seed adds modules and questions to an empty module store.
func Seed(ctx context.Context, s ModuleStore, modules []quiz.Module) error {
	names, err := s.ModuleNames(ctx)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	for _, m := range modules {
		if err := s.AddModule(ctx, m.Name); err != nil {
			return fmt.Errorf("seed module %s: %w", m.Name, err)
		}
		for _, q := range m.Questions {
			if _, err := s.SaveQuestion(ctx, m.Name, q); err != nil {
				return fmt.Errorf("seed question in %s: %w", m.Name, err)
			}
		}
	}
	return nil
}

func newQuestionID() string {
	return uuid.NewString()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
