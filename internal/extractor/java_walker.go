package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// JavaWalker collects symbol references from Java syntax trees.
type JavaWalker struct{}

func (j *JavaWalker) GetLanguage() *sitter.Language {
	return java.GetLanguage()
}

func (j *JavaWalker) Walk(root *sitter.Node, sourceCode []byte, scope *fileScope) {
	// imports bind names used anywhere in the file, so they go first
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			scope.pkg = packageName(child, sourceCode)
		case "import_declaration":
			scope.addImport(parseImport(child.Content(sourceCode)))
		}
	}
	j.visit(root, sourceCode, scope)
}

func (j *JavaWalker) visit(n *sitter.Node, sourceCode []byte, scope *fileScope) {
	switch n.Type() {
	case "package_declaration", "import_declaration",
		"line_comment", "block_comment", "string_literal", "text_block", "character_literal":
		return
	case "scoped_type_identifier", "scoped_identifier", "field_access":
		scope.referenceDotted(n.Content(sourceCode))
	case "method_invocation":
		name := n.ChildByFieldName("name")
		if object := n.ChildByFieldName("object"); object != nil && name != nil {
			scope.referenceDotted(object.Content(sourceCode) + "." + name.Content(sourceCode))
		}
	case "method_reference":
		// Type::method
		if n.NamedChildCount() >= 2 {
			target := n.NamedChild(0)
			member := n.NamedChild(int(n.NamedChildCount()) - 1)
			scope.referenceDotted(target.Content(sourceCode) + "." + member.Content(sourceCode))
		}
	case "identifier", "type_identifier":
		scope.referenceName(n.Content(sourceCode))
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		j.visit(n.NamedChild(i), sourceCode, scope)
	}
}

// packageName returns the dotted name declared by a package node of either grammar.
func packageName(n *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "scoped_identifier", "identifier":
			return normalizeDotted(child.Content(sourceCode))
		}
	}
	return ""
}
