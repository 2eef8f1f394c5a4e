package catalog

import (
	"fmt"
	"strings"
)

// Fixed achievement identifiers.
const (
	FirstQuiz        = "first_quiz"
	Correct25        = "correct_25"
	Wrong10          = "wrong_10"
	Top5             = "top5"
	PerfectionPrefix = "perfection_"
)

// Achievement is a static catalog entry.
type Achievement struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Catalog is the immutable set of achievement definitions.
type Catalog struct {
	defs  map[string]Achievement
	order []string
}

// NewCatalog builds a catalog. Identifiers must be unique and non-empty.
func NewCatalog(defs []Achievement) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Achievement, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("achievement without id: %q", d.Name)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id: %s", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		c.defs[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// PerfectionID returns the achievement identifier for a perfect run of module.
func PerfectionID(module string) string {
	return PerfectionPrefix + module
}

// Lookup returns the definition for id. Perfection achievements that are
// not listed explicitly are derived from the module name.
func (c *Catalog) Lookup(id string) (Achievement, bool) {
	if d, ok := c.defs[id]; ok {
		return d, true
	}
	if module, ok := strings.CutPrefix(id, PerfectionPrefix); ok && module != "" {
		return Achievement{
			ID:          id,
			Name:        "Perfection: " + module,
			Description: "Answer every question in " + module + " correctly.",
		}, true
	}
	return Achievement{}, false
}

// All returns the explicitly defined achievements in file order.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}
