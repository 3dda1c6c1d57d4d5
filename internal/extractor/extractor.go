package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depsweep/internal/deps"

	sitter "github.com/smacker/go-tree-sitter"
)

// TreeSitterExtractor runs a language walker over a tree-sitter syntax tree.
type TreeSitterExtractor struct {
	walker     languageWalker
	langName   string
	extensions []string
}

// NewExtractor creates an extractor for a given language.
func NewExtractor(lang string) (*TreeSitterExtractor, error) {
	switch lang {
	case "java":
		return &TreeSitterExtractor{walker: &JavaWalker{}, langName: lang, extensions: []string{".java"}}, nil
	case "kotlin":
		return &TreeSitterExtractor{walker: &KotlinWalker{}, langName: lang, extensions: []string{".kt"}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
}

func (e *TreeSitterExtractor) Language() string {
	return e.langName
}

func (e *TreeSitterExtractor) Extensions() []string {
	return e.extensions
}

// Extract parses one file and collects every symbol it references.
func (e *TreeSitterExtractor) Extract(ctx context.Context, sourceCode []byte, path string) (deps.SymbolSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(e.walker.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPoint(root)
		return nil, &ParseError{Path: path, Line: line, Column: col, Err: ErrUnparsable}
	}

	scope := newFileScope()
	e.walker.Walk(root, sourceCode, scope)
	return scope.symbols, nil
}

// firstErrorPoint returns the 1-based position of the first ERROR or MISSING node.
func firstErrorPoint(root *sitter.Node) (int, int) {
	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	if found == nil {
		found = root
	}
	p := found.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// Registry selects an extractor by file extension.
type Registry struct {
	byExtension map[string]SymbolExtractor
	byLanguage  map[string]SymbolExtractor
}

func NewRegistry(extractors ...SymbolExtractor) *Registry {
	r := &Registry{
		byExtension: make(map[string]SymbolExtractor),
		byLanguage:  make(map[string]SymbolExtractor),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry registers the Java and Kotlin extractors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, lang := range []string{"java", "kotlin"} {
		ext, err := NewExtractor(lang)
		if err != nil {
			panic(err)
		}
		r.Register(ext)
	}
	return r
}

func (r *Registry) Register(e SymbolExtractor) {
	if e == nil {
		return
	}
	r.byLanguage[e.Language()] = e
	for _, ext := range e.Extensions() {
		r.byExtension[strings.ToLower(ext)] = e
	}
}

func (r *Registry) ForPath(path string) (SymbolExtractor, bool) {
	e, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

func (r *Registry) ForLanguage(lang string) (SymbolExtractor, bool) {
	e, ok := r.byLanguage[lang]
	return e, ok
}

func (r *Registry) Supports(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

// ExtractFile extracts one source file, reading it from disk when no content is preloaded.
func (r *Registry) ExtractFile(ctx context.Context, src deps.SourceFile) (deps.SymbolSet, error) {
	e, ok := r.ForPath(src.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, src.Path)
	}
	content := src.Content
	if content == nil {
		var err error
		content, err = os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", src.Path, err)
		}
	}
	return e.Extract(ctx, content, src.Path)
}
