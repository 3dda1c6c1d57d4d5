package extractor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"depsweep/internal/deps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJavaExtractor_ExtractFile(t *testing.T) {
	reg := DefaultRegistry()
	symbols, err := reg.ExtractFile(context.Background(), deps.SourceFile{Path: filepath.Join("testdata", "A.java")})
	require.NoError(t, err)

	t.Run("Imports", func(t *testing.T) {
		assert.True(t, symbols.Has("com.google.common.collect.Collections2"))
		assert.True(t, symbols.Has("java.util.Collection"))
		assert.True(t, symbols.Has("org.slf4j.*"))
	})

	t.Run("Static import", func(t *testing.T) {
		assert.True(t, symbols.Has("org.apache.commons.lang3.StringUtils"))
		assert.True(t, symbols.Has("org.apache.commons.lang3.StringUtils#isBlank"))
	})

	t.Run("Member references", func(t *testing.T) {
		assert.True(t, symbols.Has("com.google.common.collect.Collections2#permutations"))
		assert.True(t, symbols.Has("java.util.Arrays"), "fully qualified call target")
		assert.True(t, symbols.Has("java.util.Arrays#asList"))
	})

	t.Run("Fully qualified type", func(t *testing.T) {
		assert.True(t, symbols.Has("java.util.concurrent.atomic.AtomicLong"))
	})

	t.Run("On-demand import candidates", func(t *testing.T) {
		assert.True(t, symbols.Has("org.slf4j.Logger"))
	})

	t.Run("Comments and strings", func(t *testing.T) {
		assert.False(t, symbols.Has("com.fasterxml.jackson.databind.ObjectMapper"))
		assert.False(t, symbols.Has("org.junit.Assert"))
	})
}

func TestKotlinExtractor_ExtractFile(t *testing.T) {
	reg := DefaultRegistry()
	symbols, err := reg.ExtractFile(context.Background(), deps.SourceFile{Path: filepath.Join("testdata", "B.kt")})
	require.NoError(t, err)

	assert.True(t, symbols.Has("org.slf4j.Logger"))
	assert.True(t, symbols.Has("org.apache.commons.lang3.StringUtils"), "aliased import")
	assert.True(t, symbols.Has("org.apache.commons.lang3.StringUtils#isBlank"), "call through alias")
	assert.True(t, symbols.Has("kotlinx.coroutines.*"), "top-level function import")
	assert.False(t, symbols.Has("com.google.common.base.Strings"))
	assert.False(t, symbols.Has("com.google.common.base.Joiner"))
}

func TestExtractor_Unparsable(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.ExtractFile(context.Background(), deps.SourceFile{Path: filepath.Join("testdata", "Broken.java")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparsable))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, filepath.Join("testdata", "Broken.java"), perr.Path)
	assert.GreaterOrEqual(t, perr.Line, 1)
}

func TestExtractor_InMemoryContent(t *testing.T) {
	reg := DefaultRegistry()
	src := deps.SourceFile{
		Path:    "Inline.java",
		Content: []byte("import com.google.common.base.Strings;\nclass Inline { String s = Strings.nullToEmpty(null); }\n"),
	}
	symbols, err := reg.ExtractFile(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, symbols.Has("com.google.common.base.Strings#nullToEmpty"))
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("Lookup by extension", func(t *testing.T) {
		e, ok := reg.ForPath("src/main/java/A.java")
		require.True(t, ok)
		assert.Equal(t, "java", e.Language())

		e, ok = reg.ForPath("src/main/kotlin/B.KT")
		require.True(t, ok)
		assert.Equal(t, "kotlin", e.Language())

		assert.False(t, reg.Supports("build.gradle.kts"))
	})

	t.Run("Unsupported file", func(t *testing.T) {
		_, err := reg.ExtractFile(context.Background(), deps.SourceFile{Path: "README.md", Content: []byte("# hi")})
		assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	})

	t.Run("Unknown language", func(t *testing.T) {
		_, err := NewExtractor("cobol")
		assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	})

	t.Run("Canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := reg.ExtractFile(ctx, deps.SourceFile{Path: "A.java", Content: []byte("class A {}")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseImport(t *testing.T) {
	cases := []struct {
		in   string
		want importDecl
	}{
		{"import com.google.common.collect.Collections2;", importDecl{path: "com.google.common.collect.Collections2"}},
		{"import static org.junit.Assert.assertEquals;", importDecl{path: "org.junit.Assert.assertEquals", static: true}},
		{"import static org.junit.Assert.*;", importDecl{path: "org.junit.Assert", static: true, wildcard: true}},
		{"import org.slf4j.*", importDecl{path: "org.slf4j", wildcard: true}},
		{"import a.b.C as D", importDecl{path: "a.b.C", alias: "D"}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, parseImport(tc.in))
		})
	}
}

func TestFileScope_Qualify(t *testing.T) {
	s := newFileScope()
	s.addImport(importDecl{path: "java.util.Map"})

	typ, member := s.qualify([]string{"Map", "Entry", "comparingByKey"})
	assert.Equal(t, "java.util.Map.Entry", typ)
	assert.Equal(t, "comparingByKey", member)

	typ, member = s.qualify([]string{"org", "example", "Thing"})
	assert.Equal(t, "org.example.Thing", typ)
	assert.Empty(t, member)

	typ, _ = s.qualify([]string{"this", "field"})
	assert.Empty(t, typ)

	typ, _ = s.qualify([]string{"System", "out", "println"})
	assert.Empty(t, typ)
}
