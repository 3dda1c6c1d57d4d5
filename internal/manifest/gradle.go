package manifest

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"depsweep/internal/deps"
)

const gradleConfigurations = `implementation|api|compileOnly|runtimeOnly|testImplementation|testCompileOnly|testRuntimeOnly|compile|testCompile`

var (
	// implementation 'g:a:v'  /  implementation("g:a:v")
	gradleStringRe = regexp.MustCompile(`(?m)^\s*(` + gradleConfigurations + `)\s*\(?\s*['"]([^'":\s]+):([^'":\s]+)(?::([^'"@\s]+))?(?:@\w+)?['"]`)
	// implementation group: 'g', name: 'a', version: 'v'
	gradleMapRe = regexp.MustCompile(`(?m)^\s*(` + gradleConfigurations + `)\s*\(?\s*group\s*[:=]\s*['"]([^'"]+)['"]\s*,\s*name\s*[:=]\s*['"]([^'"]+)['"](?:\s*,\s*version\s*[:=]\s*['"]([^'"]+)['"])?`)

	blockCommentRe    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe     = regexp.MustCompile(`(?m)(^|\s)//.*$`)
	rootProjectNameRe = regexp.MustCompile(`rootProject\.name\s*=\s*['"]([^'"]+)['"]`)
)

// ParseGradle reads the requested dependencies of a Groovy or Kotlin DSL build script.
func ParseGradle(content []byte) (*Manifest, error) {
	text := stripComments(string(content))

	type match struct {
		offset int
		dep    deps.Dependency
	}
	var found []match
	for _, re := range []*regexp.Regexp{gradleStringRe, gradleMapRe} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			group := func(n int) string {
				if idx[2*n] < 0 {
					return ""
				}
				return text[idx[2*n]:idx[2*n+1]]
			}
			found = append(found, match{
				offset: idx[0],
				dep: deps.Dependency{
					Type:     deps.Gradle,
					Scope:    group(1),
					Group:    group(2),
					Artifact: group(3),
					Version:  group(4),
				},
			})
		}
	}

	// declaration order is source order across both notations
	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	out := make([]deps.Dependency, 0, len(found))
	for _, m := range found {
		out = append(out, m.dep)
	}
	return &Manifest{Type: deps.Gradle, Dependencies: dedupe(out)}, nil
}

func stripComments(s string) string {
	s = blockCommentRe.ReplaceAllString(s, "")
	return lineCommentRe.ReplaceAllString(s, "$1")
}

// gradleProjectName reads rootProject.name from a settings script next to the build script.
func gradleProjectName(dir string) string {
	for _, name := range []string{"settings.gradle.kts", "settings.gradle"} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if m := rootProjectNameRe.FindStringSubmatch(stripComments(string(content))); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
