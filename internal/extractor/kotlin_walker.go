package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// KotlinWalker collects symbol references from Kotlin syntax trees.
type KotlinWalker struct{}

func (k *KotlinWalker) GetLanguage() *sitter.Language {
	return kotlin.GetLanguage()
}

func (k *KotlinWalker) Walk(root *sitter.Node, sourceCode []byte, scope *fileScope) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_header":
			scope.pkg = packageName(child, sourceCode)
		case "import_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if h := child.NamedChild(j); h.Type() == "import_header" {
					scope.addImport(parseImport(h.Content(sourceCode)))
				}
			}
		case "import_header":
			scope.addImport(parseImport(child.Content(sourceCode)))
		}
	}
	k.visit(root, sourceCode, scope)
}

func (k *KotlinWalker) visit(n *sitter.Node, sourceCode []byte, scope *fileScope) {
	switch n.Type() {
	case "package_header", "import_list", "import_header", "line_comment", "multiline_comment", "comment":
		return
	case "string_literal", "line_string_literal", "multi_line_string_literal":
		// only template expressions inside a string are code
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "interpolated_expression", "interpolated_identifier":
				k.visit(child, sourceCode, scope)
			}
		}
		return
	case "user_type":
		scope.referenceDotted(userTypeName(n, sourceCode))
	case "navigation_expression":
		scope.referenceDotted(n.Content(sourceCode))
	case "callable_reference":
		// Type::member
		text := normalizeDotted(n.Content(sourceCode))
		if i := strings.Index(text, "::"); i > 0 {
			scope.referenceDotted(text[:i] + "." + text[i+2:])
		}
	case "interpolated_identifier":
		if n.NamedChildCount() == 0 {
			scope.referenceName(strings.TrimPrefix(n.Content(sourceCode), "$"))
			return
		}
	case "simple_identifier", "type_identifier":
		scope.referenceName(n.Content(sourceCode))
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		k.visit(n.NamedChild(i), sourceCode, scope)
	}
}

// userTypeName joins the type identifiers of a user type, dropping type arguments.
func userTypeName(n *sitter.Node, sourceCode []byte) string {
	var parts []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "type_identifier" {
			parts = append(parts, child.Content(sourceCode))
		}
	}
	return strings.Join(parts, ".")
}
