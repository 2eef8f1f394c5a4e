package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.RWMutex
	modules []quiz.Module
	users   map[string]User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
	}
}

func (s *MemoryStore) LoadModules(_ context.Context) ([]quiz.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneModules(s.modules), nil
}

func (s *MemoryStore) ModuleNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.modules))
	for _, m := range s.modules {
		names = append(names, m.Name)
	}
	return names, nil
}

func (s *MemoryStore) AddModule(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &quiz.ValidationError{Field: "module", Message: "module name is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.moduleIndex(name) >= 0 {
		return fmt.Errorf("%s: %w", name, ErrModuleExists)
	}
	s.modules = append(s.modules, quiz.Module{Name: name, Questions: []quiz.Question{}})
	return nil
}

func (s *MemoryStore) SaveQuestion(_ context.Context, module string, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.moduleIndex(module)
	if i < 0 {
		return quiz.Question{}, fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	if q.ID == "" {
		q.ID = newQuestionID()
	}
	q.Options = slices.Clone(q.Options)
	s.modules[i].Questions = append(s.modules[i].Questions, q)
	return q, nil
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, module, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.moduleIndex(module)
	if i < 0 {
		return fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	qs := s.modules[i].Questions
	for j := range qs {
		if qs[j].ID == id {
			s.modules[i].Questions = slices.Delete(qs, j, j+1)
			return nil
		}
	}
	return fmt.Errorf("%s in %s: %w", id, module, ErrQuestionNotFound)
}

func (s *MemoryStore) LoadUser(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	c := u.Clone()
	return &c, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("%s: %w", u.Username, ErrUserExists)
	}
	s.users[u.Username] = u.Clone()
	return nil
}

func (s *MemoryStore) SaveUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = u.Clone()
	return nil
}

func (s *MemoryStore) UnlockModule(_ context.Context, username, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	u.Unlock(module)
	s.users[username] = u
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) moduleIndex(name string) int {
	for i, m := range s.modules {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func cloneModules(in []quiz.Module) []quiz.Module {
	out := make([]quiz.Module, len(in))
	for i, m := range in {
		qs := make([]quiz.Question, len(m.Questions))
		for j, q := range m.Questions {
			q.Options = slices.Clone(q.Options)
			qs[j] = q
		}
		out[i] = quiz.Module{Name: m.Name, Questions: qs}
	}
	return out
}
