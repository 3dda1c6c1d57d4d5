package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"depsweep/internal/deps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_Maven(t *testing.T) {
	m, err := ReadFile(filepath.Join("testdata", "pom.xml"))
	require.NoError(t, err)

	assert.Equal(t, "app", m.Name)
	assert.Equal(t, deps.Maven, m.Type)
	require.Len(t, m.Dependencies, 4, "dependency management entries are not declarations")

	assert.Equal(t, deps.Dependency{Type: deps.Maven, Group: "com.google.guava", Artifact: "guava", Version: "33.3.1-jre", Scope: "compile"}, m.Dependencies[0])

	t.Run("Property interpolation", func(t *testing.T) {
		assert.Equal(t, "2.0.16", m.Dependencies[1].Version)
		assert.Equal(t, "1.0.1-SNAPSHOT", m.Dependencies[3].Version, "project.version inherited from parent")
	})

	t.Run("Scope", func(t *testing.T) {
		assert.Equal(t, "test", m.Dependencies[2].Scope)
	})
}

func TestReadFile_GradleGroovy(t *testing.T) {
	m, err := ReadFile(filepath.Join("testdata", "build.gradle"))
	require.NoError(t, err)

	assert.Equal(t, "project", m.Name, "name from settings script")
	assert.Equal(t, deps.Gradle, m.Type)

	var coords []string
	for _, d := range m.Dependencies {
		coords = append(coords, d.Coordinates())
	}
	assert.Equal(t, []string{
		"com.google.guava:guava:33.3.1-jre",
		"org.slf4j:slf4j-api:2.0.16",
		"org.junit.jupiter:junit-jupiter:5.11.0",
	}, coords)
	assert.Equal(t, "testImplementation", m.Dependencies[2].Scope)
}

func TestReadFile_GradleKotlinDSL(t *testing.T) {
	m, err := ReadFile(filepath.Join("testdata", "build.gradle.kts"))
	require.NoError(t, err)

	require.Len(t, m.Dependencies, 3, "platform() imports are not dependencies")
	assert.Equal(t, "org.slf4j:slf4j-api:2.0.16", m.Dependencies[0].Coordinates())
	assert.Equal(t, "org.apache.commons:commons-lang3", m.Dependencies[1].Coordinates())
	assert.Empty(t, m.Dependencies[1].Version)
	assert.Equal(t, "testRuntimeOnly", m.Dependencies[2].Scope)
}

func TestParseGradle_ProcessorsAreNotCandidates(t *testing.T) {
	script := []byte(`dependencies {
    implementation 'com.google.dagger:dagger:2.51'
    annotationProcessor 'com.google.dagger:dagger-compiler:2.51'
    testAnnotationProcessor 'com.google.dagger:dagger-compiler:2.51'
    kapt("org.mapstruct:mapstruct-processor:1.6.0")
    kapt group: 'com.google.auto.service', name: 'auto-service', version: '1.1.1'
    ksp("com.squareup.moshi:moshi-kotlin-codegen:1.15.1")
}
`)
	m, err := ParseGradle(script)
	require.NoError(t, err)
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "com.google.dagger:dagger:2.51", m.Dependencies[0].Coordinates())
	assert.Equal(t, "implementation", m.Dependencies[0].Scope)
}

func TestReadFile_Unknown(t *testing.T) {
	_, err := ReadFile(filepath.Join("testdata", "settings.gradle.kts"))
	assert.True(t, errors.Is(err, ErrUnknownBuildFile))
}

func TestParseMaven_Malformed(t *testing.T) {
	_, err := ParseMaven([]byte("<project><dependencies>"))
	assert.Error(t, err)
}

func TestDedupe_KeepsHighestVersion(t *testing.T) {
	in := []deps.Dependency{
		{Type: deps.Maven, Group: "g", Artifact: "a", Version: "1.2.0"},
		{Type: deps.Maven, Group: "g", Artifact: "b", Version: "1.0.0"},
		{Type: deps.Maven, Group: "g", Artifact: "a", Version: "1.10.0"},
		{Type: deps.Maven, Group: "g", Artifact: "a", Version: "1.9.0"},
	}
	out := dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Artifact)
	assert.Equal(t, "1.10.0", out[0].Version)
	assert.Equal(t, "b", out[1].Artifact)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 1, compareVersions("33.3.1-jre", "32.0.0-jre"))
	assert.Equal(t, -1, compareVersions("", "1.0"))
	assert.Equal(t, 0, compareVersions("1.0", "1.0"))
	assert.Equal(t, 1, compareVersions("RELEASE", ""))
}
