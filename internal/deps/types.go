package deps

import "fmt"

// DependencyType identifies the build system a dependency was declared in.
type DependencyType string

const (
	Maven  DependencyType = "MAVEN"
	Gradle DependencyType = "GRADLE"
)

// Identity is the matching key of a dependency. Version is not part of it.
type Identity struct {
	Type     DependencyType
	Group    string
	Artifact string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s:%s:%s", id.Type, id.Group, id.Artifact)
}

// Dependency is one declared library reference of a module.
type Dependency struct {
	Type     DependencyType `json:"type"`
	Group    string         `json:"group"`
	Artifact string         `json:"artifact"`
	Version  string         `json:"version,omitempty"`
	Scope    string         `json:"scope,omitempty"` // e.g. "compile", "test", "implementation"
}

func (d Dependency) Identity() Identity {
	return Identity{Type: d.Type, Group: d.Group, Artifact: d.Artifact}
}

// GroupArtifact returns "group:artifact".
func (d Dependency) GroupArtifact() string {
	return d.Group + ":" + d.Artifact
}

// Coordinates returns "group:artifact:version", or "group:artifact" when the version is unknown.
func (d Dependency) Coordinates() string {
	if d.Version == "" {
		return d.GroupArtifact()
	}
	return d.GroupArtifact() + ":" + d.Version
}

// SourceFile is one source file of a module. Content may be preloaded; otherwise it is read from Path.
type SourceFile struct {
	Path    string `json:"path"`
	Content []byte `json:"-"`
}

// Module is one compilable unit with its own dependency and source sets.
type Module struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	BuildFile    string         `json:"build_file,omitempty"`
	Type         DependencyType `json:"type"`
	Dependencies []Dependency   `json:"dependencies"`
	Sources      []SourceFile   `json:"sources"`
}

// Project is the root unit of one scan.
type Project struct {
	Root    string   `json:"root"`
	Modules []Module `json:"modules"`
}
