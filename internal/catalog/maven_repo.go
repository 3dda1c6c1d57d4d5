package catalog

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"depsweep/internal/deps"
)

var multiReleasePrefixRe = regexp.MustCompile(`^META-INF/versions/\d+/`)

// MavenRepository resolves dependencies against jars in a local Maven repository layout
// (<root>/<group path>/<artifact>/<version>/<artifact>-<version>.jar). Gradle caches can be
// mirrored into the same layout.
type MavenRepository struct {
	Root string
}

func NewMavenRepository(root string) *MavenRepository {
	return &MavenRepository{Root: root}
}

// DefaultMavenRepository returns ~/.m2/repository.
func DefaultMavenRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

func (m *MavenRepository) Name() string {
	return "maven-repository"
}

func (m *MavenRepository) JarPath(dep deps.Dependency) string {
	groupPath := filepath.Join(strings.Split(dep.Group, ".")...)
	return filepath.Join(m.Root, groupPath, dep.Artifact, dep.Version, dep.Artifact+"-"+dep.Version+".jar")
}

func (m *MavenRepository) Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dep.Version == "" || strings.Contains(dep.Version, "${") {
		return nil, fmt.Errorf("%w: %s: no concrete version", ErrUnresolved, dep.Coordinates())
	}

	path := m.JarPath(dep)
	symbols, err := ReadJarSymbols(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnresolved, dep.Coordinates(), err)
	}
	return symbols, nil
}

// ReadJarSymbols lists the types compiled into a jar.
func ReadJarSymbols(path string) (deps.SymbolSet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	defer zr.Close()

	symbols := deps.NewSymbolSet()
	for _, f := range zr.File {
		if fqn, ok := classEntryName(f.Name); ok {
			symbols.Add(deps.TypeSymbol(fqn))
		}
	}
	return symbols, nil
}

// classEntryName converts a jar entry such as com/x/Outer$Inner.class to com.x.Outer.Inner.
func classEntryName(entry string) (string, bool) {
	if !strings.HasSuffix(entry, ".class") {
		return "", false
	}
	entry = multiReleasePrefixRe.ReplaceAllString(entry, "")
	if strings.HasPrefix(entry, "META-INF/") {
		return "", false
	}
	name := strings.TrimSuffix(entry, ".class")
	base := name[strings.LastIndex(name, "/")+1:]
	if base == "module-info" || base == "package-info" {
		return "", false
	}

	parts := strings.Split(base, "$")
	for _, p := range parts[1:] {
		// anonymous and local classes: Outer$1, Outer$1Local
		if p == "" || (p[0] >= '0' && p[0] <= '9') {
			return "", false
		}
	}
	pkg := strings.ReplaceAll(strings.TrimSuffix(name, base), "/", ".")
	return pkg + strings.Join(parts, "."), true
}
