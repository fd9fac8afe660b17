// Package features implements the editor-facing query operations on top
// of a built namespace: definition, references, folding, diagnostics and
// completion. All results use LSP protocol types.
package features

import (
	"path/filepath"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// NamespaceProvider yields every completed namespace of the workspace,
// for queries that span documents.
type NamespaceProvider interface {
	Namespaces() []*namespace.Namespace
}

// URIForPath converts a filesystem path to a file URI.
func URIForPath(path string) protocol.DocumentUri {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return protocol.DocumentUri("file://" + filepath.ToSlash(abs))
}

func strPtr(s string) *string { return &s }

func uintPtr(v int) *protocol.UInteger {
	u := protocol.UInteger(v)
	return &u
}

// referenceAt finds the innermost variable reference covering the 0-based
// column col inside a token, returning the raw reference text and its
// start column. Nested references win over their enclosing one.
func referenceAt(text string, base, col int) (string, int, bool) {
	for _, span := range symbols.FindVariableSpans(text) {
		start, end := base+span[0], base+span[1]
		if col < start || col >= end {
			continue
		}
		inner := text[span[0]+2 : span[1]-1]
		if ref, refStart, ok := referenceAt(inner, start+2, col); ok {
			return ref, refStart, true
		}
		return text[span[0]:span[1]], start, true
	}
	return "", 0, false
}

// definitionUnder resolves the variable reference at pos to its
// definition. The bool is false when pos is not on a reference or the
// reference resolves to nothing.
func definitionUnder(ns *namespace.Namespace, pos protocol.Position) (*symbols.VariableDefinition, bool) {
	tok, ok := ns.Doc.TokenAt(pos)
	if !ok {
		return nil, false
	}
	blockKey := ""
	if block, ok := ns.Doc.BlockAt(pos); ok {
		blockKey = namespace.BlockKey(block)
	}

	ref, refStart, ok := referenceAt(tok.Value, tok.ColOffset, int(pos.Character))
	if !ok {
		return nil, false
	}
	line := int(pos.Line) + 1
	at := symbols.SourceEntity{
		LineNo:       line,
		ColOffset:    refStart,
		EndLineNo:    line,
		EndColOffset: refStart + len(ref),
		Source:       ns.Source,
	}
	def, found, err := ns.Lookup(ref, blockKey, at)
	if err != nil || !found {
		return nil, false
	}
	return def, true
}
