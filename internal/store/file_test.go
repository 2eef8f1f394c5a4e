package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/store"
)

func TestFileStore_ReadsLegacyFlatList(t *testing.T) {
	dir := t.TempDir()
	qPath := filepath.Join(dir, "questions.json")
	os.WriteFile(qPath, []byte(`[
  {"question": "Ile to 2 + 2?", "options": ["3", "4", "5", "22"], "correct": 1},
  {"question": "Kolor nieba w słoneczny dzień to:", "options": ["zielony", "niebieski", "czerwony", "czarny"], "correct": 1}
]`), 0o644)

	s := store.NewFileStore(qPath, filepath.Join(dir, "users.json"))
	modules, err := s.LoadModules(context.Background())
	if err != nil {
		t.Fatalf("LoadModules() error = %v", err)
	}
	if len(modules) != 1 || modules[0].Name != store.LegacyModuleName {
		t.Fatalf("modules = %+v, want single %s module", modules, store.LegacyModuleName)
	}
	if len(modules[0].Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(modules[0].Questions))
	}

	// IDs assigned on first read must survive the next read.
	again, _ := s.LoadModules(context.Background())
	for i := range modules[0].Questions {
		if modules[0].Questions[i].ID == "" {
			t.Errorf("Questions[%d].ID is empty", i)
		}
		if again[0].Questions[i].ID != modules[0].Questions[i].ID {
			t.Errorf("Questions[%d].ID changed between reads", i)
		}
	}
}

func TestFileStore_PreservesModuleKeyOrder(t *testing.T) {
	dir := t.TempDir()
	qPath := filepath.Join(dir, "questions.json")
	os.WriteFile(qPath, []byte(`{
  "Zeta": [],
  "Alpha": [{"id": "a1", "question": "Q", "options": ["a","b","c","d"], "correct": 2}],
  "Mid": []
}`), 0o644)

	s := store.NewFileStore(qPath, filepath.Join(dir, "users.json"))
	names, err := s.ModuleNames(context.Background())
	if err != nil {
		t.Fatalf("ModuleNames() error = %v", err)
	}
	if strings.Join(names, ",") != "Zeta,Alpha,Mid" {
		t.Errorf("ModuleNames() = %v, want file order Zeta,Alpha,Mid", names)
	}

	if err := s.AddModule(context.Background(), "Last"); err != nil {
		t.Fatalf("AddModule() error = %v", err)
	}
	names, _ = s.ModuleNames(context.Background())
	if strings.Join(names, ",") != "Zeta,Alpha,Mid,Last" {
		t.Errorf("ModuleNames() after rewrite = %v", names)
	}
}

func TestFileStore_InvalidDocumentIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	qPath := filepath.Join(dir, "questions.json")
	os.WriteFile(qPath, []byte(`{"M": [{"question": "Q", "options": ["only", "three", "opts"], "correct": 0}]}`), 0o644)

	s := store.NewFileStore(qPath, filepath.Join(dir, "users.json"))
	_, err := s.LoadModules(context.Background())
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("LoadModules() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestFileStore_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	s := store.NewFileStore(filepath.Join(dir, "q.json"), filepath.Join(dir, "u.json"))

	modules, err := s.LoadModules(context.Background())
	if err != nil {
		t.Fatalf("LoadModules() error = %v", err)
	}
	if len(modules) != 0 {
		t.Errorf("len(modules) = %d, want 0", len(modules))
	}
	_, err = s.LoadUser(context.Background(), "nobody")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("LoadUser() error = %v, want ErrUserNotFound", err)
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		t.Error("missing user reported as store unavailable")
	}
}

func TestFileStore_UnreadablePathIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory where a file is expected makes every read fail.
	usersPath := filepath.Join(dir, "users.json")
	os.MkdirAll(usersPath, 0o755)

	s := store.NewFileStore(filepath.Join(dir, "q.json"), usersPath)
	_, err := s.LoadUser(context.Background(), "alice")
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Fatalf("LoadUser() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestFileStore_ReadsLegacyUserRecord(t *testing.T) {
	dir := t.TempDir()
	uPath := filepath.Join(dir, "users.json")
	os.WriteFile(uPath, []byte(`{"alice": {"pw": "secret1", "xp": 30, "unlocked": ["Podstawy"], "achievements": []}}`), 0o644)

	s := store.NewFileStore(filepath.Join(dir, "q.json"), uPath)
	u, err := s.LoadUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("LoadUser() error = %v", err)
	}
	if u.Username != "alice" || u.XP != 30 || u.PasswordHash != "secret1" {
		t.Errorf("LoadUser() = %+v", u)
	}
	if !u.IsUnlocked("Podstawy") {
		t.Error("unlocked module lost")
	}
}
