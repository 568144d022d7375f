// # internal/parser/types.go
package parser

type File struct {
	Path     string
	Language string
	Imports  []Import
	Symbols  []Symbol
}

type Import struct {
	// Raw import target as written in the source. Relative Python imports
	// keep their target bare; Relative carries the dot count.
	Target   string
	Items    []string // For "from X import Y, Z"
	Relative int      // Number of leading dots for Python relative imports
	Location Location
}

// Symbol is a top-level definition (function, class, type) in a file.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Exported bool
	Location Location
}

type SymbolKind int

const (
	KindFunction SymbolKind = iota
	KindClass
	KindType
	KindInterface
)

func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindType:
		return "type"
	case KindInterface:
		return "interface"
	default:
		return "unknown"
	}
}

type Location struct {
	Line   int
	Column int
}
