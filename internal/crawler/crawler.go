package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"depsweep/internal/deps"
	"depsweep/internal/extractor"
	"depsweep/internal/manifest"
	"depsweep/internal/report"
)

// Crawler discovers the modules of a project tree and the sources each one owns.
type Crawler struct {
	registry     *extractor.Registry
	ignored      []string
	// outputDirs are skipped only directly under a module root, never inside a source tree.
	outputDirs   []string
	// IncludeTests keeps test source sets (src/test, src/androidTest, ...) in each module.
	IncludeTests bool
}

// NewCrawler creates a new crawler instance.
func NewCrawler(registry *extractor.Registry) *Crawler {
	return &Crawler{
		registry:     registry,
		ignored:      []string{".git", ".gradle", ".idea", ".mvn", "node_modules"},
		outputDirs:   []string{"build", "target", "out"},
		IncludeTests: true,
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// skipDir reports whether a directory below root holds no module sources.
func (c *Crawler) skipDir(root, path, name string) bool {
	if contains(c.ignored, name) {
		return true
	}
	if !contains(c.outputDirs, name) {
		return false
	}
	if contains(strings.Split(relPath(root, filepath.Dir(path)), "/"), "src") {
		return false
	}
	return hasBuildFile(filepath.Dir(path))
}

func hasBuildFile(dir string) bool {
	for _, name := range manifest.BuildFileNames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Discover walks root and returns one module per directory holding a build manifest, ordered by
// relative path with the root first. Each source file belongs to its deepest enclosing module.
// A manifest that cannot be read drops its module, sources included, and yields a
// BrokenManifest warning instead of failing the whole project.
func (c *Crawler) Discover(root string) (*deps.Project, []report.Warning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	buildFiles := map[string]string{}
	var sources []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path != absRoot && c.skipDir(absRoot, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Dir(path)
		if manifest.IsBuildFile(d.Name()) {
			if current, ok := buildFiles[dir]; !ok || buildFilePriority(d.Name()) < buildFilePriority(filepath.Base(current)) {
				buildFiles[dir] = path
			}
			return nil
		}
		if c.registry.Supports(path) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	dirs := make([]string, 0, len(buildFiles))
	for dir := range buildFiles {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool {
		return relPath(absRoot, dirs[i]) < relPath(absRoot, dirs[j])
	})

	project := &deps.Project{Root: absRoot, Modules: make([]deps.Module, 0, len(dirs))}
	// broken modules keep claiming their sources so a parent module is not credited with them
	moduleOf := make(map[string]int, len(dirs))
	var warnings []report.Warning
	for _, dir := range dirs {
		m, err := manifest.ReadFile(buildFiles[dir])
		if err != nil {
			moduleOf[dir] = brokenModule
			warnings = append(warnings, report.Warning{
				Kind:    report.BrokenManifest,
				Project: filepath.Base(dir),
				Path:    buildFiles[dir],
				Message: err.Error(),
			})
			continue
		}
		moduleOf[dir] = len(project.Modules)
		project.Modules = append(project.Modules, deps.Module{
			Name:         m.Name,
			Path:         dir,
			BuildFile:    buildFiles[dir],
			Type:         m.Type,
			Dependencies: m.Dependencies,
		})
	}

	for _, src := range sources {
		i, ok := owner(absRoot, filepath.Dir(src), moduleOf)
		if !ok || i == brokenModule {
			continue
		}
		mod := &project.Modules[i]
		if !c.IncludeTests && isTestSource(relPath(mod.Path, src)) {
			continue
		}
		mod.Sources = append(mod.Sources, deps.SourceFile{Path: src})
	}

	return project, warnings, nil
}

const brokenModule = -1

// owner walks up from dir to the nearest module directory.
func owner(root, dir string, moduleOf map[string]int) (int, bool) {
	for {
		if i, ok := moduleOf[dir]; ok {
			return i, true
		}
		if dir == root {
			return 0, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return 0, false
		}
		dir = parent
	}
}

func buildFilePriority(name string) int {
	for i, n := range manifest.BuildFileNames {
		if n == name {
			return i
		}
	}
	return len(manifest.BuildFileNames)
}

func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// isTestSource reports whether a module-relative path lies in a test source set such as
// src/test/java or src/integrationTest/kotlin.
func isTestSource(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "src" && strings.Contains(strings.ToLower(parts[i+1]), "test") {
			return true
		}
	}
	return false
}
