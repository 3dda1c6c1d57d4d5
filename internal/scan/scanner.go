// Package scan runs the catalog, extraction and reconciliation steps over every module of a project.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"depsweep/internal/catalog"
	"depsweep/internal/deps"
	"depsweep/internal/extractor"
	"depsweep/internal/reconcile"
	"depsweep/internal/report"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("depsweep.scan")

type Options struct {
	// Workers bounds the number of modules scanned at once. Defaults to runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
	Metrics *Metrics
}

type Scanner struct {
	resolver catalog.Resolver
	registry *extractor.Registry
	workers  int
	logger   *slog.Logger
	metrics  *Metrics
}

func NewScanner(resolver catalog.Resolver, registry *extractor.Registry, opts Options) *Scanner {
	s := &Scanner{
		resolver: resolver,
		registry: registry,
		workers:  opts.Workers,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scan reports the unused dependencies of every module. Rows follow module order and, within a
// module, declaration order, whatever order the workers finish in. When ctx is canceled the
// modules already finished are returned together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, project *deps.Project) (*report.Report, error) {
	ctx, span := tracer.Start(ctx, "scan.Scan",
		trace.WithAttributes(
			attribute.String("project.root", project.Root),
			attribute.Int("project.modules", len(project.Modules)),
			attribute.Int("workers", s.workers),
		),
	)
	defer span.End()

	start := time.Now()
	sink := report.NewSink(len(project.Modules))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range project.Modules {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return s.scanModule(ctx, i, &project.Modules[i], sink)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	r := sink.Finalize()
	s.metrics.observeScan(time.Since(start))
	span.SetAttributes(
		attribute.Int("report.rows", len(r.Rows)),
		attribute.Int("report.warnings", len(r.Warnings)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return r, err
	}
	span.SetStatus(codes.Ok, "")
	return r, nil
}

func (s *Scanner) scanModule(ctx context.Context, ordinal int, m *deps.Module, sink *report.Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "scan.module",
		trace.WithAttributes(
			attribute.String("module.name", m.Name),
			attribute.Int("module.dependencies", len(m.Dependencies)),
			attribute.Int("module.sources", len(m.Sources)),
		),
	)
	defer span.End()

	logger := s.logger.With("project", m.Name)
	logger.Debug("scanning module", "dependencies", len(m.Dependencies), "sources", len(m.Sources))

	var (
		cat     *catalog.Catalog
		usage   deps.SymbolSet
		skipped []report.Warning
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := catalog.Build(gctx, m.Dependencies, s.resolver)
		cat = c
		return err
	})
	g.Go(func() error {
		u, w, err := s.extractUsage(gctx, m, logger)
		usage, skipped = u, w
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	res := reconcile.Reconcile(m.Name, cat, usage)
	for _, row := range res.Rows {
		logger.Info("found unused dependency", "type", row.DependencyType, "group", row.GroupID, "artifact", row.ArtifactID)
		s.metrics.unused(row.DependencyType)
	}

	warnings := make([]report.Warning, 0, len(res.Unresolved)+len(skipped))
	for _, u := range res.Unresolved {
		dep := u.Dependency
		logger.Warn("unresolved dependency", "dependency", dep.Coordinates(), "error", u.Err)
		warnings = append(warnings, report.Warning{
			Kind:       report.UnresolvedDependency,
			Project:    m.Name,
			Dependency: &dep,
			Message:    u.Err.Error(),
		})
	}
	warnings = append(warnings, skipped...)

	sink.Append(ordinal, res.Rows...)
	sink.Warn(ordinal, warnings...)

	s.metrics.moduleScanned()
	s.metrics.unresolved(len(res.Unresolved))
	s.metrics.unparsable(len(skipped))
	span.SetAttributes(
		attribute.Int("module.unused", len(res.Rows)),
		attribute.Int("module.unresolved", len(res.Unresolved)),
		attribute.Int("module.unparsable", len(skipped)),
	)
	return nil
}

// extractUsage unions the symbols referenced by every source of the module. Files that fail to
// parse or read are skipped with a warning; the rest still count.
func (s *Scanner) extractUsage(ctx context.Context, m *deps.Module, logger *slog.Logger) (deps.SymbolSet, []report.Warning, error) {
	sets := make([]deps.SymbolSet, 0, len(m.Sources))
	var warnings []report.Warning
	for _, src := range m.Sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		symbols, err := s.registry.ExtractFile(ctx, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			if errors.Is(err, extractor.ErrUnsupportedLanguage) {
				continue
			}
			logger.Warn("skipping unparsable source", "path", src.Path, "error", err)
			warnings = append(warnings, report.Warning{
				Kind:    report.UnparsableSource,
				Project: m.Name,
				Path:    src.Path,
				Message: err.Error(),
			})
			continue
		}
		sets = append(sets, symbols)
	}
	return reconcile.NewUsageIndex(sets...), warnings, nil
}
