package catalog

import (
	"context"
	"errors"
	"fmt"

	"depsweep/internal/deps"
)

// ErrUnresolved marks a dependency whose exported symbols could not be determined.
var ErrUnresolved = errors.New("unresolved dependency")

// Entry is the catalog record of one declared dependency.
type Entry struct {
	Dependency deps.Dependency
	// Provides is every symbol the dependency is credited with: its exports plus their packages.
	Provides deps.SymbolSet
	Err      error
}

func (e Entry) Resolved() bool {
	return e.Err == nil
}

// Catalog maps the declared dependencies of one module to the symbols they provide.
// It is built once and not modified afterwards.
type Catalog struct {
	entries []Entry
	byID    map[deps.Identity]int
}

// Build resolves every dependency in declaration order. A failing lookup yields an unresolved
// entry wrapping ErrUnresolved instead of dropping the dependency.
func Build(ctx context.Context, dependencies []deps.Dependency, r Resolver) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(dependencies)),
		byID:    make(map[deps.Identity]int, len(dependencies)),
	}
	for _, d := range dependencies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.Identity()]; dup {
			continue
		}

		entry := Entry{Dependency: d}
		symbols, err := r.Resolve(ctx, d)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !errors.Is(err, ErrUnresolved) {
				err = fmt.Errorf("%w: %s: %w", ErrUnresolved, d.Coordinates(), err)
			}
			entry.Err = err
		} else {
			entry.Provides = expand(symbols)
		}

		c.byID[d.Identity()] = len(c.entries)
		c.entries = append(c.entries, entry)
	}
	return c, nil
}

// expand credits a dependency with the package of every type it exports, so on-demand imports match.
func expand(exports deps.SymbolSet) deps.SymbolSet {
	out := deps.NewSymbolSet()
	for sym := range exports {
		out.Add(sym)
		if deps.IsPackageSymbol(sym) {
			continue
		}
		if deps.IsMemberSymbol(sym) {
			out.Add(deps.OwnerType(sym))
		}
		out.Add(deps.PackageSymbol(deps.PackageOf(sym)))
	}
	return out
}

// Entries returns the entries in declaration order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

func (c *Catalog) Lookup(id deps.Identity) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Unresolved returns the entries whose resolution failed, in declaration order.
func (c *Catalog) Unresolved() []Entry {
	var out []Entry
	for _, e := range c.entries {
		if !e.Resolved() {
			out = append(out, e)
		}
	}
	return out
}
