package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// LegacyModuleName holds questions read from the legacy flat-list file.
const LegacyModuleName = "General"

// FileStore keeps modules and users in two JSON documents. Every operation
// reads the file, applies the change and rewrites it.
type FileStore struct {
	questionsPath string
	usersPath     string
	mu            sync.Mutex
}

// NewFileStore creates a store over the given files. Missing files are
// treated as empty and created on first write.
func NewFileStore(questionsPath, usersPath string) *FileStore {
	return &FileStore{
		questionsPath: questionsPath,
		usersPath:     usersPath,
	}
}

func (s *FileStore) LoadModules(_ context.Context) ([]quiz.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadModules()
}

func (s *FileStore) ModuleNames(ctx context.Context) ([]string, error) {
	modules, err := s.LoadModules(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	return names, nil
}

func (s *FileStore) AddModule(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &quiz.ValidationError{Field: "module", Message: "module name is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	modules, err := s.loadModules()
	if err != nil {
		return err
	}
	if moduleIndex(modules, name) >= 0 {
		return fmt.Errorf("%s: %w", name, ErrModuleExists)
	}
	modules = append(modules, quiz.Module{Name: name, Questions: []quiz.Question{}})
	return s.saveModules(modules)
}

func (s *FileStore) SaveQuestion(_ context.Context, module string, q quiz.Question) (quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	modules, err := s.loadModules()
	if err != nil {
		return quiz.Question{}, err
	}
	i := moduleIndex(modules, module)
	if i < 0 {
		return quiz.Question{}, fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	if q.ID == "" {
		q.ID = newQuestionID()
	}
	modules[i].Questions = append(modules[i].Questions, q)
	if err := s.saveModules(modules); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

func (s *FileStore) DeleteQuestion(_ context.Context, module, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modules, err := s.loadModules()
	if err != nil {
		return err
	}
	i := moduleIndex(modules, module)
	if i < 0 {
		return fmt.Errorf("%s: %w", module, ErrModuleNotFound)
	}
	j := slices.IndexFunc(modules[i].Questions, func(q quiz.Question) bool { return q.ID == id })
	if j < 0 {
		return fmt.Errorf("%s in %s: %w", id, module, ErrQuestionNotFound)
	}
	modules[i].Questions = slices.Delete(modules[i].Questions, j, j+1)
	return s.saveModules(modules)
}

func (s *FileStore) LoadUser(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	u, ok := users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	c := u.Clone()
	return &c, nil
}

func (s *FileStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	if _, ok := users[u.Username]; ok {
		return fmt.Errorf("%s: %w", u.Username, ErrUserExists)
	}
	users[u.Username] = u.Clone()
	return s.saveUsers(users)
}

func (s *FileStore) SaveUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	users[u.Username] = u.Clone()
	return s.saveUsers(users)
}

func (s *FileStore) UnlockModule(_ context.Context, username, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	u, ok := users[username]
	if !ok {
		return fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	if !u.Unlock(module) {
		return nil
	}
	users[username] = u
	return s.saveUsers(users)
}

func (s *FileStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) loadModules() ([]quiz.Module, error) {
	data, err := readDocument(s.questionsPath)
	if err != nil {
		return nil, unavailable("read questions", err)
	}
	if data == nil {
		return []quiz.Module{}, nil
	}
	if err := validateDocument(compiledQuestions, data); err != nil {
		return nil, unavailable("validate "+s.questionsPath, err)
	}

	modules, err := decodeModules(data)
	if err != nil {
		return nil, unavailable("decode questions", err)
	}

	// Records from older files have no ID; assign and persist them once so
	// deletions by ID stay stable across reads.
	assigned := 0
	for i := range modules {
		for j := range modules[i].Questions {
			if modules[i].Questions[j].ID == "" {
				modules[i].Questions[j].ID = newQuestionID()
				assigned++
			}
		}
	}
	if assigned > 0 {
		if err := s.saveModules(modules); err != nil {
			return nil, err
		}
		slog.Info("assigned question ids", "path", s.questionsPath, "count", assigned)
	}
	return modules, nil
}

func (s *FileStore) saveModules(modules []quiz.Module) error {
	data, err := encodeModules(modules)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	if err := writeDocument(s.questionsPath, data); err != nil {
		return unavailable("write questions", err)
	}
	return nil
}

func (s *FileStore) loadUsers() (map[string]User, error) {
	data, err := readDocument(s.usersPath)
	if err != nil {
		return nil, unavailable("read users", err)
	}
	users := make(map[string]User)
	if data == nil {
		return users, nil
	}
	if err := validateDocument(compiledUsers, data); err != nil {
		return nil, unavailable("validate "+s.usersPath, err)
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, unavailable("decode users", err)
	}
	for name, u := range users {
		u.Username = name
		users[name] = u.Clone()
	}
	return users, nil
}

func (s *FileStore) saveUsers(users map[string]User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := writeDocument(s.usersPath, append(data, '\n')); err != nil {
		return unavailable("write users", err)
	}
	return nil
}

// readDocument returns nil data for a missing or empty file.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// writeDocument replaces path through a temp file in the same directory.
func writeDocument(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// decodeModules reads a module map while keeping key order, or the legacy
// flat question list as a single module.
func decodeModules(data []byte) ([]quiz.Module, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var qs []quiz.Question
		if err := json.Unmarshal(trimmed, &qs); err != nil {
			return nil, err
		}
		return []quiz.Module{{Name: LegacyModuleName, Questions: qs}}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var modules []quiz.Module
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var qs []quiz.Question
		if err := dec.Decode(&qs); err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
		if qs == nil {
			qs = []quiz.Question{}
		}
		modules = append(modules, quiz.Module{Name: name, Questions: qs})
	}
	return modules, nil
}

func encodeModules(modules []quiz.Module) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, m := range modules {
		key, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		qs := m.Questions
		if qs == nil {
			qs = []quiz.Question{}
		}
		body, err := json.MarshalIndent(qs, "  ", "  ")
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n  %s: %s", key, body)
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func moduleIndex(modules []quiz.Module, name string) int {
	return slices.IndexFunc(modules, func(m quiz.Module) bool { return m.Name == name })
}
