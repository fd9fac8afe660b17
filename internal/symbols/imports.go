package symbols

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

type ImportKind int

const (
	KindLibraryImport ImportKind = iota
	KindResourceImport
	KindVariablesImport
)

func (k ImportKind) String() string {
	switch k {
	case KindLibraryImport:
		return "library"
	case KindResourceImport:
		return "resource"
	case KindVariablesImport:
		return "variables"
	default:
		return "unknown"
	}
}

// ImportKey is the content identity of an import declaration. It
// deliberately excludes position: re-parsing a document after edits
// elsewhere produces new spans, but an import of the same target with the
// same configuration is the same logical import.
type ImportKey struct {
	Kind  ImportKind
	Name  string
	Args  string
	Alias string
}

// argsSep joins argument lists inside ImportKey; the unit separator cannot
// appear in statement cell text.
const argsSep = "\x1f"

// ImportEntity is what namespace collections and features see of any of
// the three import variants.
type ImportEntity interface {
	Key() ImportKey
	Kind() ImportKind
	Range() protocol.Range
	ImportName() string
	ImportSource() string
}

// importRange prefers the name token's tighter span over the statement span.
func importRange(e SourceEntity, nameToken *Token) protocol.Range {
	if nameToken != nil {
		return RangeFromToken(*nameToken)
	}
	return e.Range()
}

// LibraryImport declares a library dependency. Name may still contain
// unexpanded variable syntax; resolution is the import resolver's job and
// construction never fails.
type LibraryImport struct {
	SourceEntity
	Name      string
	NameToken *Token
	Args      []string
	Alias     string
}

func (i LibraryImport) Kind() ImportKind     { return KindLibraryImport }
func (i LibraryImport) ImportName() string   { return i.Name }
func (i LibraryImport) ImportSource() string { return i.Source }

func (i LibraryImport) Key() ImportKey {
	return ImportKey{
		Kind:  KindLibraryImport,
		Name:  i.Name,
		Args:  strings.Join(i.Args, argsSep),
		Alias: i.Alias,
	}
}

func (i LibraryImport) Range() protocol.Range {
	return importRange(i.SourceEntity, i.NameToken)
}

// ResourceImport declares a resource file dependency.
type ResourceImport struct {
	SourceEntity
	Name      string
	NameToken *Token
}

func (i ResourceImport) Kind() ImportKind     { return KindResourceImport }
func (i ResourceImport) ImportName() string   { return i.Name }
func (i ResourceImport) ImportSource() string { return i.Source }

func (i ResourceImport) Key() ImportKey {
	return ImportKey{Kind: KindResourceImport, Name: i.Name}
}

func (i ResourceImport) Range() protocol.Range {
	return importRange(i.SourceEntity, i.NameToken)
}

// VariablesImport declares a variable file dependency.
type VariablesImport struct {
	SourceEntity
	Name      string
	NameToken *Token
	Args      []string
}

func (i VariablesImport) Kind() ImportKind     { return KindVariablesImport }
func (i VariablesImport) ImportName() string   { return i.Name }
func (i VariablesImport) ImportSource() string { return i.Source }

func (i VariablesImport) Key() ImportKey {
	return ImportKey{
		Kind: KindVariablesImport,
		Name: i.Name,
		Args: strings.Join(i.Args, argsSep),
	}
}

func (i VariablesImport) Range() protocol.Range {
	return importRange(i.SourceEntity, i.NameToken)
}
