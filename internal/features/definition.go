package features

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/namespace"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// GotoDefinition resolves the variable under pos to its definition sites.
// A position on a definition name resolves to that definition itself.
// Synthetic definitions with no source location, and references that
// resolve to nothing, yield an empty result.
func GotoDefinition(ns *namespace.Namespace, pos protocol.Position) []protocol.Location {
	if def, ok := ns.DefinitionAt(pos); ok {
		return definitionLocations(def)
	}
	def, ok := definitionUnder(ns, pos)
	if !ok {
		return nil
	}
	return definitionLocations(def)
}

func definitionLocations(def *symbols.VariableDefinition) []protocol.Location {
	if def.Source == "" {
		return nil
	}
	return []protocol.Location{{
		URI:   URIForPath(def.Source),
		Range: def.NameRange(),
	}}
}
