// Package catalog loads process-wide quiz configuration: the achievement
// catalog and the seed modules used to populate an empty store.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

//go:embed defaults
var defaults embed.FS

const achievementsFile = "achievements.yaml"

// moduleFile is the YAML shape of a seed module.
type moduleFile struct {
	Name      string          `yaml:"name"`
	Position  int             `yaml:"position"`
	Questions []quiz.Question `yaml:"questions"`
}

type achievementsDoc struct {
	Achievements []Achievement `yaml:"achievements"`
}

// Loader holds the catalog and seed modules read at startup.
type Loader struct {
	catalog *Catalog
	modules []moduleFile
}

// NewLoader reads configuration from rootDir, or from the built-in defaults
// when rootDir is empty.
func NewLoader(rootDir string) (*Loader, error) {
	var fsys fs.FS
	if rootDir == "" {
		sub, err := fs.Sub(defaults, "defaults")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		if _, err := os.Stat(rootDir); err != nil {
			slog.Warn("catalog directory unreadable, no achievements or seed modules loaded",
				"path", rootDir, "error", err)
		}
		fsys = os.DirFS(rootDir)
	}
	return Load(fsys)
}

// Load reads achievements.yaml and every other *.yaml file as a seed module.
func Load(fsys fs.FS) (*Loader, error) {
	l := &Loader{}
	var defs []Achievement

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != "." {
				slog.Warn("skipping unreadable catalog entry", "path", p, "error", err)
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		if path.Base(p) == achievementsFile {
			var doc achievementsDoc
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", p, err)
			}
			defs = append(defs, doc.Achievements...)
			return nil
		}
		return l.loadModule(p, data)
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	c, err := NewCatalog(defs)
	if err != nil {
		return nil, err
	}
	l.catalog = c

	sort.SliceStable(l.modules, func(i, j int) bool {
		return l.modules[i].Position < l.modules[j].Position
	})

	slog.Info("catalog loaded", "achievements", len(defs), "seed_modules", len(l.modules))
	return l, nil
}

// Catalog returns the achievement catalog.
func (l *Loader) Catalog() *Catalog {
	return l.catalog
}

// SeedModules returns the seed modules ordered by position.
func (l *Loader) SeedModules() []quiz.Module {
	out := make([]quiz.Module, 0, len(l.modules))
	for _, m := range l.modules {
		qs := make([]quiz.Question, len(m.Questions))
		copy(qs, m.Questions)
		out = append(out, quiz.Module{Name: m.Name, Questions: qs})
	}
	return out
}

func (l *Loader) loadModule(p string, data []byte) error {
	var m moduleFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		slog.Warn("skipping invalid module YAML", "path", p, "error", err)
		return nil
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil // Not a module file
	}

	valid := m.Questions[:0]
	for i, q := range m.Questions {
		if err := q.Validate(); err != nil {
			slog.Warn("skipping invalid seed question", "path", p, "index", i, "error", err)
			continue
		}
		valid = append(valid, q)
	}
	m.Questions = valid

	l.modules = append(l.modules, m)
	return nil
}
