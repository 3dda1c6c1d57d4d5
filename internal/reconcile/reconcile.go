// Package reconcile classifies declared dependencies against the symbols a module's sources reference.
package reconcile

import (
	"depsweep/internal/catalog"
	"depsweep/internal/deps"
	"depsweep/internal/report"
)

type Outcome int

const (
	Used Outcome = iota
	Unused
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Used:
		return "used"
	case Unused:
		return "unused"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

type Classification struct {
	Dependency deps.Dependency
	Outcome    Outcome
	// Err is the resolution failure for Unresolved dependencies.
	Err error
}

// UnresolvedDependency is a dependency that could not be classified.
type UnresolvedDependency struct {
	Dependency deps.Dependency
	Err        error
}

type Result struct {
	Rows       []report.Row
	Unresolved []UnresolvedDependency
}

// NewUsageIndex unions the per-file symbol sets of one module.
func NewUsageIndex(sets ...deps.SymbolSet) deps.SymbolSet {
	usage := deps.NewSymbolSet()
	for _, s := range sets {
		usage.AddAll(s)
	}
	return usage
}

// Classify returns one classification per catalog entry in declaration order.
func Classify(cat *catalog.Catalog, usage deps.SymbolSet) []Classification {
	entries := cat.Entries()
	out := make([]Classification, 0, len(entries))
	for _, e := range entries {
		c := Classification{Dependency: e.Dependency}
		switch {
		case !e.Resolved():
			c.Outcome = Unresolved
			c.Err = e.Err
		case e.Provides.Intersects(usage):
			c.Outcome = Used
		default:
			c.Outcome = Unused
		}
		out = append(out, c)
	}
	return out
}

// Reconcile turns the classification of one module into report rows. Unresolved dependencies
// never produce rows.
func Reconcile(project string, cat *catalog.Catalog, usage deps.SymbolSet) Result {
	var res Result
	for _, c := range Classify(cat, usage) {
		switch c.Outcome {
		case Unused:
			res.Rows = append(res.Rows, report.Row{
				Project:        project,
				DependencyType: c.Dependency.Type,
				GroupID:        c.Dependency.Group,
				ArtifactID:     c.Dependency.Artifact,
			})
		case Unresolved:
			res.Unresolved = append(res.Unresolved, UnresolvedDependency{Dependency: c.Dependency, Err: c.Err})
		}
	}
	return res
}
