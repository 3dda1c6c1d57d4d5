package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"

	"depsweep/internal/deps"
)

// SymbolCache persists resolved symbol sets by coordinates.
type SymbolCache interface {
	LoadSymbols(ctx context.Context, coordinates string) (deps.SymbolSet, bool, error)
	SaveSymbols(ctx context.Context, coordinates string, symbols deps.SymbolSet) error
}

// Cached consults a SymbolCache before delegating. Only versioned coordinates are cached,
// since an unversioned lookup may resolve differently next time.
type Cached struct {
	cache  SymbolCache
	next   Resolver
	logger *slog.Logger
	errors atomic.Int64
}

// NewCached wraps next with cache. Cache failures are logged to logger (slog.Default() when nil)
// and the lookup falls through to next.
func NewCached(cache SymbolCache, next Resolver, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{cache: cache, next: next, logger: logger}
}

func (c *Cached) Name() string {
	return "cached(" + c.next.Name() + ")"
}

// CacheErrors returns how many cache reads and writes have failed.
func (c *Cached) CacheErrors() int64 {
	return c.errors.Load()
}

func (c *Cached) Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error) {
	if dep.Version == "" {
		return c.next.Resolve(ctx, dep)
	}

	key := dep.Coordinates()
	symbols, ok, err := c.cache.LoadSymbols(ctx, key)
	switch {
	case err != nil:
		c.errors.Add(1)
		c.logger.Warn("symbol cache read failed", "dependency", key, "error", err)
	case ok:
		return symbols, nil
	}

	symbols, err = c.next.Resolve(ctx, dep)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveSymbols(ctx, key, symbols); err != nil {
		c.errors.Add(1)
		c.logger.Warn("symbol cache write failed", "dependency", key, "error", err)
	}
	return symbols, nil
}
