package extractor

import (
	"regexp"
	"strings"

	"depsweep/internal/deps"
)

var dottedNameRe = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// fileScope holds the import bindings of one file and the symbols collected so far.
type fileScope struct {
	pkg       string
	types     map[string]string // simple name or alias -> type FQN
	members   map[string]string // simple name or alias -> symbol (member or package)
	wildcards []string          // on-demand import prefixes
	symbols   deps.SymbolSet
}

func newFileScope() *fileScope {
	return &fileScope{
		types:   make(map[string]string),
		members: make(map[string]string),
		symbols: deps.NewSymbolSet(),
	}
}

// importDecl is a normalized import statement.
type importDecl struct {
	path     string
	alias    string
	static   bool
	wildcard bool
}

func (s *fileScope) addImport(imp importDecl) {
	path := imp.path
	if path == "" {
		return
	}
	parts := strings.Split(path, ".")
	last := parts[len(parts)-1]

	switch {
	case imp.wildcard && imp.static:
		s.symbols.Add(deps.TypeSymbol(path))
		s.wildcards = append(s.wildcards, path)
	case imp.wildcard:
		if deps.IsTypeName(last) {
			s.symbols.Add(deps.TypeSymbol(path))
		} else {
			s.symbols.Add(deps.PackageSymbol(path))
		}
		s.wildcards = append(s.wildcards, path)
	case imp.static:
		if len(parts) < 2 {
			return
		}
		s.bindMember(strings.Join(parts[:len(parts)-1], "."), last, imp.alias)
	default:
		s.bindPath(parts, imp.alias)
	}
}

// bindPath binds a non-static import. Kotlin can import top-level functions and object members
// without a static keyword, so the shape of the path decides what is bound.
func (s *fileScope) bindPath(parts []string, alias string) {
	path := strings.Join(parts, ".")
	last := parts[len(parts)-1]
	name := alias
	if name == "" {
		name = last
	}

	firstType := -1
	for i, p := range parts {
		if deps.IsTypeName(p) {
			firstType = i
			break
		}
	}

	switch {
	case deps.IsTypeName(last) || firstType < 0 && len(parts) == 1:
		s.symbols.Add(deps.TypeSymbol(path))
		s.types[name] = path
	case firstType < 0:
		// top-level function or property: only its package is known
		pkg := strings.Join(parts[:len(parts)-1], ".")
		sym := deps.PackageSymbol(pkg)
		s.symbols.Add(sym)
		s.members[name] = sym
	default:
		s.bindMember(strings.Join(parts[:len(parts)-1], "."), last, alias)
	}
}

func (s *fileScope) bindMember(owner, member, alias string) {
	sym := deps.MemberSymbol(owner, member)
	s.symbols.Add(deps.TypeSymbol(owner))
	s.symbols.Add(sym)
	name := alias
	if name == "" {
		name = member
	}
	s.members[name] = sym
}

// referenceName records a simple name if an import binds it. Unbound type-like names are
// offered as candidates of every on-demand import.
func (s *fileScope) referenceName(name string) {
	name = strings.Trim(name, "`")
	if name == "" {
		return
	}
	if fqn, ok := s.types[name]; ok {
		s.symbols.Add(fqn)
		return
	}
	if sym, ok := s.members[name]; ok {
		s.symbols.Add(sym)
		if deps.IsMemberSymbol(sym) {
			s.symbols.Add(deps.OwnerType(sym))
		}
		return
	}
	if !deps.IsTypeName(name) {
		return
	}
	for _, w := range s.wildcards {
		s.symbols.Add(w + "." + name)
	}
}

// referenceDotted records a dotted reference such as java.util.Arrays.asList or Map.Entry.
func (s *fileScope) referenceDotted(text string) {
	text = normalizeDotted(text)
	if !dottedNameRe.MatchString(text) {
		return
	}
	parts := strings.Split(text, ".")
	if len(parts) < 2 {
		return
	}
	typeFQN, member := s.qualify(parts)
	if typeFQN == "" {
		return
	}
	s.symbols.Add(deps.TypeSymbol(typeFQN))
	if member != "" {
		s.symbols.Add(deps.MemberSymbol(typeFQN, member))
	}
}

// qualify resolves the leading type of a dotted name and the member that follows it.
func (s *fileScope) qualify(parts []string) (string, string) {
	var typeParts []string
	rest := parts

	if fqn, ok := s.types[parts[0]]; ok {
		typeParts = []string{fqn}
		rest = parts[1:]
	} else {
		if deps.IsTypeName(parts[0]) {
			// unbound simple type: same package, java.lang or an on-demand import
			return "", ""
		}
		i := 1
		for i < len(parts) && !deps.IsTypeName(parts[i]) {
			i++
		}
		if i >= len(parts) {
			return "", ""
		}
		typeParts = []string{strings.Join(parts[:i+1], ".")}
		rest = parts[i+1:]
	}

	for len(rest) > 0 && deps.IsTypeName(rest[0]) {
		typeParts = append(typeParts, rest[0])
		rest = rest[1:]
	}
	member := ""
	if len(rest) > 0 {
		member = rest[0]
	}
	return strings.Join(typeParts, "."), member
}

func normalizeDotted(text string) string {
	text = strings.Join(strings.Fields(text), "")
	return strings.ReplaceAll(text, "`", "")
}

// parseImport normalizes the text of an import statement of either language.
func parseImport(text string) importDecl {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "import")
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))

	var imp importDecl
	if strings.HasPrefix(text, "static ") || strings.HasPrefix(text, "static\t") {
		imp.static = true
		text = strings.TrimSpace(text[len("static"):])
	}
	if i := strings.Index(text, " as "); i >= 0 {
		imp.alias = strings.Trim(strings.TrimSpace(text[i+len(" as "):]), "`")
		text = text[:i]
	}
	text = normalizeDotted(text)
	if strings.HasSuffix(text, ".*") {
		imp.wildcard = true
		text = strings.TrimSuffix(text, ".*")
	}
	imp.path = text
	return imp
}
