package deps

import (
	"sort"
	"strings"
)

const (
	memberSep     = "#"
	packageSuffix = ".*"
)

// SymbolSet is a set of fully-qualified symbols. Three encodings share the set:
//
//	com.example.Type        type (nested types joined with ".")
//	com.example.Type#member member of a type
//	com.example.*           package
//
// A set is treated as immutable once handed to another component.
type SymbolSet map[string]struct{}

func NewSymbolSet(symbols ...string) SymbolSet {
	s := make(SymbolSet, len(symbols))
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

func (s SymbolSet) Add(sym string) {
	if sym == "" {
		return
	}
	s[sym] = struct{}{}
}

func (s SymbolSet) Has(sym string) bool {
	_, ok := s[sym]
	return ok
}

func (s SymbolSet) Len() int {
	return len(s)
}

// AddAll copies every symbol of other into s.
func (s SymbolSet) AddAll(other SymbolSet) {
	for sym := range other {
		s[sym] = struct{}{}
	}
}

// Intersects reports whether s and other share at least one symbol.
func (s SymbolSet) Intersects(other SymbolSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for sym := range small {
		if _, ok := large[sym]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the symbols in lexical order.
func (s SymbolSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func TypeSymbol(fqn string) string {
	return fqn
}

func MemberSymbol(typeFQN, member string) string {
	if typeFQN == "" || member == "" {
		return ""
	}
	return typeFQN + memberSep + member
}

func PackageSymbol(pkg string) string {
	if pkg == "" {
		return ""
	}
	return pkg + packageSuffix
}

func IsPackageSymbol(sym string) bool {
	return strings.HasSuffix(sym, packageSuffix)
}

func IsMemberSymbol(sym string) bool {
	return strings.Contains(sym, memberSep)
}

// OwnerType returns the type part of a member symbol, or the symbol itself.
func OwnerType(sym string) string {
	if i := strings.Index(sym, memberSep); i >= 0 {
		return sym[:i]
	}
	return sym
}

// PackageOf guesses the package of a type FQN: the leading segments up to the first
// segment that starts with an upper-case letter.
func PackageOf(typeFQN string) string {
	typeFQN = OwnerType(typeFQN)
	parts := strings.Split(typeFQN, ".")
	for i, p := range parts {
		if IsTypeName(p) {
			return strings.Join(parts[:i], ".")
		}
	}
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ".")
}

// IsTypeName reports whether an identifier follows the JVM convention for type names.
func IsTypeName(ident string) bool {
	if ident == "" {
		return false
	}
	c := ident[0]
	return c >= 'A' && c <= 'Z'
}
