package extractor

import (
	"context"

	"depsweep/internal/deps"

	sitter "github.com/smacker/go-tree-sitter"
)

// SymbolExtractor produces the set of fully-qualified symbols one source file references.
// Implementations are static: they never compile or run the file.
type SymbolExtractor interface {
	Language() string
	Extensions() []string
	Extract(ctx context.Context, content []byte, path string) (deps.SymbolSet, error)
}

// languageWalker is the per-language part of a tree-sitter based extractor.
type languageWalker interface {
	GetLanguage() *sitter.Language
	Walk(root *sitter.Node, sourceCode []byte, scope *fileScope)
}
