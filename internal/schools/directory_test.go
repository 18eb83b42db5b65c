package schools

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"donations/internal/core"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEntries() []Entry {
	return []Entry{
		{Name: "Stanford University", Alias: "stanford"},
		{Name: "Carnegie Mellon University", Alias: "cmu"},
		{Name: "Yale University", Alias: "yale"},
	}
}

func TestDirectoryRoundTrip(t *testing.T) {
	d := NewDirectory(sampleEntries(), quietLogger())
	for _, e := range sampleEntries() {
		alias, err := d.Alias(e.Name)
		if err != nil {
			t.Fatalf("Alias(%q): %v", e.Name, err)
		}
		name, err := d.Name(alias)
		if err != nil {
			t.Fatalf("Name(%q): %v", alias, err)
		}
		if name != e.Name {
			t.Errorf("round trip %q -> %q -> %q", e.Name, alias, name)
		}
	}
}

func TestDirectoryUnknown(t *testing.T) {
	d := NewDirectory(sampleEntries(), quietLogger())
	if _, err := d.ByAlias("mit"); !errors.Is(err, core.ErrUnknownSchool) {
		t.Errorf("ByAlias: expected ErrUnknownSchool, got %v", err)
	}
	if _, err := d.ByName("Stanford"); !errors.Is(err, core.ErrUnknownSchool) {
		t.Errorf("ByName: expected ErrUnknownSchool, got %v", err)
	}
}

func TestDirectoryTrimsLookups(t *testing.T) {
	d := NewDirectory(sampleEntries(), quietLogger())
	s, err := d.ByAlias("  cmu ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Carnegie Mellon University" {
		t.Errorf("got %q", s.Name)
	}
}

func TestDirectorySkipsInvalidEntries(t *testing.T) {
	entries := append(sampleEntries(),
		Entry{Name: "", Alias: "blank"},
		Entry{Name: "Rice University", Alias: ""},
		Entry{Name: "Stanford University", Alias: "stanford-2"},
		Entry{Name: "Columbia University", Alias: "cmu"},
	)
	d := NewDirectory(entries, quietLogger())

	if d.Len() != 3 {
		t.Fatalf("expected 3 schools, got %d", d.Len())
	}
	if got := len(d.Skipped()); got != 4 {
		t.Fatalf("expected 4 skipped entries, got %d", got)
	}
	// first occurrence wins
	if name, _ := d.Name("cmu"); name != "Carnegie Mellon University" {
		t.Errorf("cmu resolved to %q", name)
	}
	if alias, _ := d.Alias("Stanford University"); alias != "stanford" {
		t.Errorf("stanford alias %q", alias)
	}
}

func TestDirectorySchoolsSorted(t *testing.T) {
	d := NewDirectory(sampleEntries(), quietLogger())
	got := d.Schools()
	want := []string{"Carnegie Mellon University", "Stanford University", "Yale University"}
	if len(got) != len(want) {
		t.Fatalf("got %d schools", len(got))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("index %d: got %q want %q", i, got[i].Name, want[i])
		}
	}
}

func TestDirectoryMissing(t *testing.T) {
	d := NewDirectory(sampleEntries(), quietLogger())
	got := d.Missing([]string{"Yale University", "Harvard University"})
	if len(got) != 1 || got[0] != "Harvard University" {
		t.Errorf("got %v", got)
	}
}
