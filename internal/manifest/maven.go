package manifest

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"depsweep/internal/deps"
)

var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

type pomProject struct {
	GroupID      string        `xml:"groupId"`
	ArtifactID   string        `xml:"artifactId"`
	Version      string        `xml:"version"`
	Parent       pomParent     `xml:"parent"`
	Properties   pomProperties `xml:"properties"`
	Dependencies []pomDep      `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID string `xml:"groupId"`
	Version string `xml:"version"`
}

type pomDep struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

// pomProperties collects arbitrary <properties> children.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*p = make(pomProperties)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

// ParseMaven reads the direct dependencies of a POM. Dependency management entries are
// not declarations and are ignored.
func ParseMaven(content []byte) (*Manifest, error) {
	var pom pomProject
	dec := xml.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&pom); err != nil {
		return nil, err
	}

	props := map[string]string{}
	for k, v := range pom.Properties {
		props[k] = v
	}
	groupID := firstNonEmpty(pom.GroupID, pom.Parent.GroupID)
	version := firstNonEmpty(pom.Version, pom.Parent.Version)
	props["project.groupId"] = groupID
	props["project.artifactId"] = pom.ArtifactID
	props["project.version"] = version
	props["pom.version"] = version
	props["project.parent.version"] = pom.Parent.Version

	var out []deps.Dependency
	for _, d := range pom.Dependencies {
		scope := strings.TrimSpace(d.Scope)
		if scope == "" {
			scope = "compile"
		}
		out = append(out, deps.Dependency{
			Type:     deps.Maven,
			Group:    interpolate(strings.TrimSpace(d.GroupID), props),
			Artifact: interpolate(strings.TrimSpace(d.ArtifactID), props),
			Version:  interpolate(strings.TrimSpace(d.Version), props),
			Scope:    scope,
		})
	}

	return &Manifest{
		Name:         strings.TrimSpace(pom.ArtifactID),
		Type:         deps.Maven,
		Dependencies: dedupe(out),
	}, nil
}

// interpolate replaces ${name} placeholders; unknown placeholders are left as written.
func interpolate(s string, props map[string]string) string {
	for i := 0; i < 5 && strings.Contains(s, "${"); i++ {
		s = placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
			key := m[2 : len(m)-1]
			if v, ok := props[key]; ok {
				return v
			}
			return m
		})
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
