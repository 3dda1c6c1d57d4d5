package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"depsweep/internal/catalog"
	"depsweep/internal/deps"
	"depsweep/internal/extractor"
	"depsweep/internal/report"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	guava = deps.Dependency{Type: deps.Maven, Group: "com.google.guava", Artifact: "guava", Version: "33.3.1-jre"}
	slf4j = deps.Dependency{Type: deps.Maven, Group: "org.slf4j", Artifact: "slf4j-api", Version: "2.0.16"}
	lang3 = deps.Dependency{Type: deps.Maven, Group: "org.apache.commons", Artifact: "commons-lang3", Version: "3.17.0"}
)

func testIndex() *catalog.Index {
	return catalog.NewIndex(map[string][]string{
		"com.google.guava:guava": {
			"com.google.common.collect.CompactHashSet",
			"com.google.common.collect.Collections2",
		},
		"org.slf4j:slf4j-api": {"org.slf4j.Logger", "org.slf4j.LoggerFactory"},
	})
}

func newTestScanner(workers int, metrics *Metrics) *Scanner {
	return NewScanner(testIndex(), extractor.DefaultRegistry(), Options{
		Workers: workers,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics,
	})
}

func javaFile(name, content string) deps.SourceFile {
	return deps.SourceFile{Path: "src/main/java/" + name, Content: []byte(content)}
}

func module(name string, dependencies []deps.Dependency, sources ...deps.SourceFile) deps.Module {
	return deps.Module{Name: name, Type: deps.Maven, Dependencies: dependencies, Sources: sources}
}

const usesNothing = `package app;

public class App {
    public static void main(String[] args) {
        System.out.println("hello");
    }
}
`

const usesCompactHashSet = `package app;

import com.google.common.collect.CompactHashSet;

public class App {
    Object s = CompactHashSet.create();
}
`

const usesLogger = `package app;

import org.slf4j.Logger;
import org.slf4j.LoggerFactory;

public class Log {
    static final Logger LOG = LoggerFactory.getLogger(Log.class);
}
`

const brokenUsesLogger = `package app;

import org.slf4j.Logger;

public class Broken {
    static final Logger LOG =
`

func TestScan_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("Unreferenced dependency is reported", func(t *testing.T) {
		p := &deps.Project{Modules: []deps.Module{
			module("app", []deps.Dependency{guava}, javaFile("App.java", usesNothing)),
		}}
		r, err := newTestScanner(2, nil).Scan(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []report.Row{
			{Project: "app", DependencyType: deps.Maven, GroupID: "com.google.guava", ArtifactID: "guava"},
		}, r.Rows)
		assert.Empty(t, r.Warnings)
	})

	t.Run("Referenced dependency is not reported", func(t *testing.T) {
		p := &deps.Project{Modules: []deps.Module{
			module("app", []deps.Dependency{guava}, javaFile("App.java", usesCompactHashSet)),
		}}
		r, err := newTestScanner(2, nil).Scan(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, r.Rows)
	})

	t.Run("Each module reports independently", func(t *testing.T) {
		p := &deps.Project{Modules: []deps.Module{
			module("a", []deps.Dependency{guava}, javaFile("App.java", usesNothing)),
			module("b", []deps.Dependency{guava}, javaFile("App.java", usesNothing)),
		}}
		r, err := newTestScanner(2, nil).Scan(ctx, p)
		require.NoError(t, err)
		require.Len(t, r.Rows, 2)
		assert.Equal(t, "a", r.Rows[0].Project)
		assert.Equal(t, "b", r.Rows[1].Project)
	})

	t.Run("Unresolved dependency warns without a row", func(t *testing.T) {
		p := &deps.Project{Modules: []deps.Module{
			module("app", []deps.Dependency{lang3}, javaFile("App.java", usesNothing)),
		}}
		r, err := newTestScanner(2, nil).Scan(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, r.Rows)
		require.Len(t, r.Warnings, 1)
		w := r.Warnings[0]
		assert.Equal(t, report.UnresolvedDependency, w.Kind)
		require.NotNil(t, w.Dependency)
		assert.Equal(t, lang3.Identity(), w.Dependency.Identity())
	})

	t.Run("Unparsable source warns and its references are lost", func(t *testing.T) {
		p := &deps.Project{Modules: []deps.Module{
			module("app", []deps.Dependency{guava, slf4j},
				javaFile("App.java", usesCompactHashSet),
				javaFile("Broken.java", brokenUsesLogger),
			),
		}}
		r, err := newTestScanner(2, nil).Scan(ctx, p)
		require.NoError(t, err)
		require.Len(t, r.Rows, 1)
		assert.Equal(t, "slf4j-api", r.Rows[0].ArtifactID)
		require.Len(t, r.Warnings, 1)
		assert.Equal(t, report.UnparsableSource, r.Warnings[0].Kind)
		assert.Equal(t, "src/main/java/Broken.java", r.Warnings[0].Path)
	})
}

func TestScan_EmptyInputs(t *testing.T) {
	p := &deps.Project{Modules: []deps.Module{
		module("no-deps", nil, javaFile("App.java", usesCompactHashSet)),
		module("no-sources", []deps.Dependency{slf4j}),
	}}
	r, err := newTestScanner(1, nil).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, "no-sources", r.Rows[0].Project)

	r, err = newTestScanner(1, nil).Scan(context.Background(), &deps.Project{})
	require.NoError(t, err)
	assert.Empty(t, r.Rows)
}

func TestScan_DeterministicAcrossWorkers(t *testing.T) {
	var modules []deps.Module
	for i := 0; i < 24; i++ {
		src := usesNothing
		if i%3 == 0 {
			src = usesLogger
		}
		modules = append(modules, module(fmt.Sprintf("m%02d", i), []deps.Dependency{guava, slf4j}, javaFile("App.java", src)))
	}
	p := &deps.Project{Modules: modules}

	baseline, err := newTestScanner(1, nil).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, baseline.Rows, 24+16)

	for _, workers := range []int{2, 4, 8, 32} {
		r, err := newTestScanner(workers, nil).Scan(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, baseline.Rows, r.Rows, "workers=%d", workers)
	}
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &deps.Project{Modules: []deps.Module{
		module("app", []deps.Dependency{guava}, javaFile("App.java", usesNothing)),
	}}
	r, err := newTestScanner(1, nil).Scan(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)
	assert.Empty(t, r.Rows)
}

type cancelingResolver struct {
	cancel context.CancelFunc
	next   catalog.Resolver
}

func (c cancelingResolver) Name() string { return "canceling" }
func (c cancelingResolver) Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error) {
	symbols, err := c.next.Resolve(ctx, dep)
	c.cancel()
	return symbols, err
}

func TestScan_CanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var modules []deps.Module
	for i := 0; i < 5; i++ {
		modules = append(modules, module(fmt.Sprintf("m%d", i), []deps.Dependency{guava}, javaFile("App.java", usesNothing)))
	}
	s := NewScanner(cancelingResolver{cancel: cancel, next: testIndex()}, extractor.DefaultRegistry(), Options{
		Workers: 1,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	r, err := s.Scan(ctx, &deps.Project{Modules: modules})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(r.Rows), len(modules))
}

func TestScan_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	p := &deps.Project{Modules: []deps.Module{
		module("app", []deps.Dependency{guava, slf4j, lang3},
			javaFile("Log.java", usesLogger),
			javaFile("Broken.java", brokenUsesLogger),
		),
		module("lib", []deps.Dependency{guava}, javaFile("App.java", usesNothing)),
	}}
	_, err := newTestScanner(2, metrics).Scan(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.modulesScanned))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.unusedDependencies.WithLabelValues("MAVEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.unresolvedDependencies))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.unparsableSources))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.scanDuration))
}
