package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depsweep/internal/deps"

	"github.com/Masterminds/semver/v3"
)

// ErrUnknownBuildFile is returned for files that are not a supported build manifest.
var ErrUnknownBuildFile = errors.New("unknown build file")

// BuildFileNames lists the manifests recognized as module roots, in lookup priority.
var BuildFileNames = []string{"pom.xml", "build.gradle.kts", "build.gradle"}

// Manifest is the declared dependency set of one module.
type Manifest struct {
	Name         string
	Type         deps.DependencyType
	Dependencies []deps.Dependency
}

// ReadFile parses a build manifest, dispatching on its file name.
func ReadFile(path string) (*Manifest, error) {
	base := filepath.Base(path)
	if !IsBuildFile(base) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuildFile, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m *Manifest
	if base == "pom.xml" {
		m, err = ParseMaven(content)
	} else {
		m, err = ParseGradle(content)
		if err == nil {
			m.Name = gradleProjectName(filepath.Dir(path))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(filepath.Dir(path))
	}
	return m, nil
}

func IsBuildFile(name string) bool {
	for _, n := range BuildFileNames {
		if name == n {
			return true
		}
	}
	return false
}

// dedupe collapses declarations with the same identity. The first declaration keeps its
// position; the highest version wins.
func dedupe(in []deps.Dependency) []deps.Dependency {
	out := make([]deps.Dependency, 0, len(in))
	index := make(map[deps.Identity]int, len(in))
	for _, d := range in {
		if i, ok := index[d.Identity()]; ok {
			if compareVersions(d.Version, out[i].Version) > 0 {
				out[i].Version = d.Version
			}
			continue
		}
		index[d.Identity()] = len(out)
		out = append(out, d)
	}
	return out
}

func compareVersions(a, b string) int {
	if a == b {
		return 0
	}
	if b == "" {
		return 1
	}
	if a == "" {
		return -1
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}
