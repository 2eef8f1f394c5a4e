package catalog_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/catalog"
)

func TestNewLoader_Defaults(t *testing.T) {
	loader, err := catalog.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	modules := loader.SeedModules()
	if len(modules) != 3 {
		t.Fatalf("len(SeedModules()) = %d, want 3", len(modules))
	}
	want := []string{"Agile_Podstawy", "Scrum", "Praktyki"}
	for i, m := range modules {
		if m.Name != want[i] {
			t.Errorf("SeedModules()[%d] = %q, want %q", i, m.Name, want[i])
		}
		if len(m.Questions) == 0 {
			t.Errorf("module %s has no questions", m.Name)
		}
	}

	for _, id := range []string{catalog.FirstQuiz, catalog.Correct25, catalog.Wrong10, catalog.Top5} {
		if _, ok := loader.Catalog().Lookup(id); !ok {
			t.Errorf("Lookup(%s) not found in default catalog", id)
		}
	}
}

func TestLoader_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "achievements.yaml"), []byte(`
achievements:
  - id: first_quiz
    name: Debut
    description: First quiz done.
`), 0o644)
	os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`
name: Second
position: 2
questions:
  - question: Q2
    options: [a, b, c, d]
    correct: 1
`), 0o644)
	os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
name: First
position: 1
questions:
  - question: Q1
    options: [a, b, c, d]
    correct: 0
  - question: Broken
    options: [a, b]
    correct: 0
`), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# ignored"), 0o644)

	loader, err := catalog.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	modules := loader.SeedModules()
	if len(modules) != 2 || modules[0].Name != "First" || modules[1].Name != "Second" {
		t.Fatalf("SeedModules() = %+v, want First then Second", modules)
	}
	if len(modules[0].Questions) != 1 {
		t.Errorf("First has %d questions, want 1 (invalid one skipped)", len(modules[0].Questions))
	}

	a, ok := loader.Catalog().Lookup(catalog.FirstQuiz)
	if !ok || a.Name != "Debut" {
		t.Errorf("Lookup(first_quiz) = %+v, %v", a, ok)
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	loader, err := catalog.NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if len(loader.SeedModules()) != 0 {
		t.Errorf("SeedModules() = %d, want 0 for empty dir", len(loader.SeedModules()))
	}
	if len(loader.Catalog().All()) != 0 {
		t.Errorf("All() = %d, want 0 for empty dir", len(loader.Catalog().All()))
	}
}

func TestLoader_MissingDirWarns(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "typo")
	loader, err := catalog.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if len(loader.SeedModules()) != 0 {
		t.Errorf("SeedModules() = %d, want 0", len(loader.SeedModules()))
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), dir) {
		t.Errorf("log = %q, want a warning naming %s", buf.String(), dir)
	}
}

func TestCatalog_PerfectionLookup(t *testing.T) {
	c, err := catalog.NewCatalog(nil)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	a, ok := c.Lookup(catalog.PerfectionID("Scrum"))
	if !ok {
		t.Fatal("Lookup(perfection_Scrum) not found")
	}
	if a.ID != "perfection_Scrum" || a.Name == "" {
		t.Errorf("Lookup(perfection_Scrum) = %+v", a)
	}
	if _, ok := c.Lookup("perfection_"); ok {
		t.Error("Lookup(perfection_) should not resolve without a module name")
	}
}

func TestNewCatalog_DuplicateID(t *testing.T) {
	_, err := catalog.NewCatalog([]catalog.Achievement{{ID: "x"}, {ID: "x"}})
	if err == nil {
		t.Fatal("NewCatalog() should reject duplicate ids")
	}
}
