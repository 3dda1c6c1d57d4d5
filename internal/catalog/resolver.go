package catalog

import (
	"context"
	"errors"
	"fmt"

	"depsweep/internal/deps"
)

// Resolver returns the symbols a dependency exports. Errors mean the dependency is unresolved.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error)
}

// Chain tries its resolvers in order; the first success wins.
type Chain struct {
	resolvers []Resolver
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

func (c *Chain) Name() string {
	return "chain"
}

func (c *Chain) Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error) {
	if len(c.resolvers) == 0 {
		return nil, fmt.Errorf("%w: %s: no resolvers configured", ErrUnresolved, dep.Coordinates())
	}

	var errs []error
	for _, r := range c.resolvers {
		symbols, err := r.Resolve(ctx, dep)
		if err == nil {
			return symbols, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return nil, errors.Join(errs...)
}
