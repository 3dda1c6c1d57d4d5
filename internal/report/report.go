package report

import (
	"fmt"
	"slices"
	"sync"

	"depsweep/internal/deps"
)

// Row is one unused dependency of one module.
type Row struct {
	Project        string              `json:"project"`
	DependencyType deps.DependencyType `json:"dependency_type"`
	GroupID        string              `json:"group"`
	ArtifactID     string              `json:"artifact"`
}

func (r Row) String() string {
	return fmt.Sprintf("%s %s:%s:%s", r.Project, r.DependencyType, r.GroupID, r.ArtifactID)
}

type WarningKind string

const (
	UnresolvedDependency WarningKind = "unresolved_dependency"
	UnparsableSource     WarningKind = "unparsable_source"
	BrokenManifest       WarningKind = "broken_manifest"
)

// Warning is a non-fatal problem found while scanning a module.
type Warning struct {
	Kind       WarningKind      `json:"kind"`
	Project    string           `json:"project"`
	Path       string           `json:"path,omitempty"`
	Dependency *deps.Dependency `json:"dependency,omitempty"`
	Message    string           `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Dependency != nil:
		return fmt.Sprintf("%s: %s: %s: %s", w.Kind, w.Project, w.Dependency.Coordinates(), w.Message)
	case w.Path != "":
		return fmt.Sprintf("%s: %s: %s: %s", w.Kind, w.Project, w.Path, w.Message)
	default:
		return fmt.Sprintf("%s: %s: %s", w.Kind, w.Project, w.Message)
	}
}

// Report is the finalized output of a scan.
type Report struct {
	Rows     []Row     `json:"rows"`
	Warnings []Warning `json:"warnings"`
}

// CountKind returns how many warnings have the given kind.
func (r *Report) CountKind(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

type slot struct {
	rows     []Row
	warnings []Warning
}

// Sink collects rows from concurrent module workers. Each module owns one slot and the
// finalized report concatenates slots by module ordinal, so completion order never shows.
type Sink struct {
	mu    sync.Mutex
	slots []slot
	final *Report
}

func NewSink(modules int) *Sink {
	return &Sink{slots: make([]slot, modules)}
}

func (s *Sink) Append(module int, rows ...Row) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grow(module)
	s.slots[module].rows = append(s.slots[module].rows, rows...)
	s.final = nil
}

func (s *Sink) Warn(module int, warnings ...Warning) {
	if len(warnings) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grow(module)
	s.slots[module].warnings = append(s.slots[module].warnings, warnings...)
	s.final = nil
}

func (s *Sink) grow(module int) {
	for len(s.slots) <= module {
		s.slots = append(s.slots, slot{})
	}
}

// Finalize returns the ordered report. Calling it again without new appends yields an equal
// report; each call returns its own copy, so callers may modify the result.
func (s *Sink) Finalize() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final == nil {
		r := &Report{Rows: []Row{}, Warnings: []Warning{}}
		for _, sl := range s.slots {
			r.Rows = append(r.Rows, sl.rows...)
			r.Warnings = append(r.Warnings, sl.warnings...)
		}
		s.final = r
	}
	return &Report{
		Rows:     slices.Clone(s.final.Rows),
		Warnings: slices.Clone(s.final.Warnings),
	}
}
