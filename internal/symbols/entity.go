package symbols

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SourceEntity is the positional base shared by every entity in the symbol
// model. Storage is 1-based for lines and 0-based for columns; Range
// converts to the protocol's 0-based, end-exclusive convention.
//
// Coordinate ordering is not validated: an entity with end before start is
// accepted and yields an inverted range. Source is empty for synthetic
// entities such as built-in variables.
type SourceEntity struct {
	LineNo       int
	ColOffset    int
	EndLineNo    int
	EndColOffset int
	Source       string
}

// EntityKey is the positional identity of a SourceEntity, usable as a map
// key. Two entities at the same span in the same source are interchangeable
// unless a more specific key narrows this.
type EntityKey struct {
	LineNo       int
	ColOffset    int
	EndLineNo    int
	EndColOffset int
	Source       string
}

func (e SourceEntity) Key() EntityKey {
	return EntityKey{
		LineNo:       e.LineNo,
		ColOffset:    e.ColOffset,
		EndLineNo:    e.EndLineNo,
		EndColOffset: e.EndColOffset,
		Source:       e.Source,
	}
}

func (e SourceEntity) Range() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(e.LineNo - 1),
			Character: protocol.UInteger(e.ColOffset),
		},
		End: protocol.Position{
			Line:      protocol.UInteger(e.EndLineNo - 1),
			Character: protocol.UInteger(e.EndColOffset),
		},
	}
}

// EntityFromToken builds a single-token entity span.
func EntityFromToken(t Token, source string) SourceEntity {
	return SourceEntity{
		LineNo:       t.LineNo,
		ColOffset:    t.ColOffset,
		EndLineNo:    t.LineNo,
		EndColOffset: t.EndColOffset,
		Source:       source,
	}
}
