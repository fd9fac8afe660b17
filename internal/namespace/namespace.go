// Package namespace builds the queryable symbol table for one analysis
// pass over a document. A Namespace is immutable once built apart from
// lazy value resolution, which never touches identity; reanalysis replaces
// the whole Namespace atomically from a consumer's perspective.
package namespace

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/rfparser"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// Namespace is the symbol table of a single document analysis pass.
type Namespace struct {
	PassID string
	Source string
	Doc    *rfparser.Document

	imports     []symbols.ImportEntity
	importIndex map[symbols.ImportKey]symbols.ImportEntity

	// suiteVars holds variables-section definitions; blockVars holds
	// arguments and locals per test/keyword block. All maps are keyed by
	// normalized matcher name.
	suiteVars   map[string]*symbols.VariableDefinition
	blockVars   map[string]map[string]*symbols.VariableDefinition
	cmdlineVars map[string]*symbols.VariableDefinition
	builtinVars map[string]*symbols.VariableDefinition
	envVars     map[string]*symbols.VariableDefinition

	definitions []*symbols.VariableDefinition
	unresolved  []*symbols.VariableDefinition

	references map[symbols.VariableKey][]protocol.Range
	defsByKey  map[symbols.VariableKey]*symbols.VariableDefinition
}

// BlockKey identifies a test or keyword block within one namespace.
func BlockKey(b *rfparser.Block) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%d:%s", b.StartLine, b.Name.Value)
}

// Imports returns the deduplicated import entities in declaration order.
func (ns *Namespace) Imports() []symbols.ImportEntity {
	return ns.imports
}

// Definitions returns every variable definition created by this pass,
// including synthetic globals, in creation order.
func (ns *Namespace) Definitions() []*symbols.VariableDefinition {
	return ns.definitions
}

// Unresolved returns one sentinel per reference occurrence that matched no
// definition, each positioned at its usage site.
func (ns *Namespace) Unresolved() []*symbols.VariableDefinition {
	return ns.unresolved
}

// References returns the usage spans recorded for a definition.
func (ns *Namespace) References(def *symbols.VariableDefinition) []protocol.Range {
	return ns.references[def.Key()]
}

// AllReferences returns the full definition-to-usages index.
func (ns *Namespace) AllReferences() map[symbols.VariableKey][]protocol.Range {
	return ns.references
}

// DefinitionByKey resolves an identity key back to its definition.
func (ns *Namespace) DefinitionByKey(key symbols.VariableKey) (*symbols.VariableDefinition, bool) {
	def, ok := ns.defsByKey[key]
	return def, ok
}

// resolveName walks the scope chain: block locals and arguments first,
// then command line variables (which override the variable table), suite
// variables, builtins, and previously seen environment references.
func (ns *Namespace) resolveName(normalized, blockKey string) (*symbols.VariableDefinition, bool) {
	if blockKey != "" {
		if scope, ok := ns.blockVars[blockKey]; ok {
			if def, ok := scope[normalized]; ok {
				return def, true
			}
		}
	}
	if def, ok := ns.cmdlineVars[normalized]; ok {
		return def, true
	}
	if def, ok := ns.suiteVars[normalized]; ok {
		return def, true
	}
	if def, ok := ns.builtinVars[normalized]; ok {
		return def, true
	}
	if def, ok := ns.envVars[normalized]; ok {
		return def, true
	}
	return nil, false
}

// Lookup resolves a raw reference against the scope chain. When nothing
// matches, the result is a VariableNotFoundDefinition positioned at the
// reference so callers always get a reportable entity; the second return
// distinguishes the sentinel. Text that is not a variable reference at all
// yields an INVALID_VARIABLE error.
func (ns *Namespace) Lookup(name, blockKey string, at symbols.SourceEntity) (*symbols.VariableDefinition, bool, error) {
	m, err := symbols.ParseVariable(name)
	if err != nil {
		return nil, false, err
	}
	if def, ok := ns.resolveName(m.NormalizedName, blockKey); ok {
		return def, true, nil
	}
	return symbols.NewVariableNotFoundDefinition(name, at, nil), false, nil
}

// VisibleDefinitions returns every definition in scope at the given block,
// block locals first, in creation order within each layer.
func (ns *Namespace) VisibleDefinitions(blockKey string) []*symbols.VariableDefinition {
	var out []*symbols.VariableDefinition
	seen := make(map[string]bool)

	appendScope := func(scope map[string]*symbols.VariableDefinition) {
		for _, def := range ns.definitions {
			m, err := def.Matcher()
			if err != nil {
				continue
			}
			if scope[m.NormalizedName] != def || seen[m.NormalizedName] {
				continue
			}
			seen[m.NormalizedName] = true
			out = append(out, def)
		}
	}

	if blockKey != "" {
		appendScope(ns.blockVars[blockKey])
	}
	appendScope(ns.cmdlineVars)
	appendScope(ns.suiteVars)
	appendScope(ns.builtinVars)
	appendScope(ns.envVars)
	return out
}

// DefinitionAt returns the definition whose name range covers the
// position, for go-to-definition on a definition site itself.
func (ns *Namespace) DefinitionAt(pos protocol.Position) (*symbols.VariableDefinition, bool) {
	for _, def := range ns.definitions {
		if def.Source != ns.Source {
			continue
		}
		if symbols.PositionInRange(def.NameRange(), pos) {
			return def, true
		}
	}
	return nil, false
}
