// Package schools maintains the bijective mapping between canonical school
// names and the short aliases used by the dashboard's dropdown.
package schools

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"donations/internal/core"
)

// Entry is one raw row of an alias document.
type Entry struct {
	Name  string `yaml:"name"`
	Alias string `yaml:"alias"`
}

// Skipped records an entry that was left out of the directory.
type Skipped struct {
	Entry  Entry
	Reason string
}

// Directory is immutable once built and safe for concurrent use.
type Directory struct {
	byName  map[string]core.School
	byAlias map[string]core.School
	ordered []core.School
	skipped []Skipped
}

// NewDirectory builds the mapping from entries. Blank or duplicate names and
// aliases are skipped with a warning; the first occurrence wins.
func NewDirectory(entries []Entry, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Directory{
		byName:  make(map[string]core.School, len(entries)),
		byAlias: make(map[string]core.School, len(entries)),
	}
	for _, e := range entries {
		name, alias := strings.TrimSpace(e.Name), strings.TrimSpace(e.Alias)
		var reason string
		switch {
		case name == "":
			reason = "empty name"
		case alias == "":
			reason = "empty alias"
		case d.byName[name] != (core.School{}):
			reason = "duplicate name"
		case d.byAlias[alias] != (core.School{}):
			reason = fmt.Sprintf("alias already used by %q", d.byAlias[alias].Name)
		}
		if reason != "" {
			logger.Warn("Skipping school alias entry", "school", e.Name, "alias", e.Alias, "reason", reason)
			d.skipped = append(d.skipped, Skipped{Entry: e, Reason: reason})
			continue
		}
		s := core.School{Name: name, Alias: alias}
		d.byName[name] = s
		d.byAlias[alias] = s
		d.ordered = append(d.ordered, s)
	}
	slices.SortFunc(d.ordered, func(a, b core.School) int { return strings.Compare(a.Name, b.Name) })
	return d
}

// ByName resolves a canonical display name.
func (d *Directory) ByName(name string) (core.School, error) {
	s, ok := d.byName[strings.TrimSpace(name)]
	if !ok {
		return core.School{}, fmt.Errorf("%w: name %q", core.ErrUnknownSchool, name)
	}
	return s, nil
}

// ByAlias resolves a dropdown alias.
func (d *Directory) ByAlias(alias string) (core.School, error) {
	s, ok := d.byAlias[strings.TrimSpace(alias)]
	if !ok {
		return core.School{}, fmt.Errorf("%w: alias %q", core.ErrUnknownSchool, alias)
	}
	return s, nil
}

func (d *Directory) Alias(name string) (string, error) {
	s, err := d.ByName(name)
	return s.Alias, err
}

func (d *Directory) Name(alias string) (string, error) {
	s, err := d.ByAlias(alias)
	return s.Name, err
}

// Schools returns every school sorted by name.
func (d *Directory) Schools() []core.School {
	return slices.Clone(d.ordered)
}

func (d *Directory) Len() int { return len(d.ordered) }

// Skipped returns the entries rejected while building the directory.
func (d *Directory) Skipped() []Skipped {
	return slices.Clone(d.skipped)
}

// Missing returns the names that are not in the directory, preserving order.
func (d *Directory) Missing(names []string) []string {
	var out []string
	for _, n := range names {
		if _, ok := d.byName[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
