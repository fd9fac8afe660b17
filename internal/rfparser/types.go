package rfparser

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/symbols"
)

type SectionKind int

const (
	SectionUnknown SectionKind = iota
	SectionSettings
	SectionVariables
	SectionTestCases
	SectionKeywords
	SectionComments
)

func (k SectionKind) String() string {
	switch k {
	case SectionSettings:
		return "settings"
	case SectionVariables:
		return "variables"
	case SectionTestCases:
		return "test cases"
	case SectionKeywords:
		return "keywords"
	case SectionComments:
		return "comments"
	default:
		return "unknown"
	}
}

// Document is the parsed form of one Robot Framework file. It is rebuilt
// wholesale on every analysis pass.
type Document struct {
	Source   string
	Sections []Section
}

// Section spans from its header line to the line before the next header.
// Lines are 1-based inclusive.
type Section struct {
	Kind       SectionKind
	Header     symbols.Token
	StartLine  int
	EndLine    int
	Statements []Statement
	Blocks     []Block
}

// Block is one named test case or keyword.
type Block struct {
	Name       symbols.Token
	StartLine  int
	EndLine    int
	Statements []Statement
}

// Statement is one logical line of cells; continuations (`...`) extend
// EndLine past StartLine.
type Statement struct {
	Tokens    []symbols.Token
	StartLine int
	EndLine   int
}

// TokenAt returns the token covering the given protocol position.
func (d *Document) TokenAt(pos protocol.Position) (symbols.Token, bool) {
	for _, stmt := range d.allStatements() {
		for _, tok := range stmt.Tokens {
			if symbols.PositionInRange(symbols.RangeFromToken(tok), pos) {
				return tok, true
			}
		}
	}
	return symbols.Token{}, false
}

// BlockAt returns the test or keyword block containing the position.
func (d *Document) BlockAt(pos protocol.Position) (*Block, bool) {
	line := int(pos.Line) + 1
	for si := range d.Sections {
		for bi := range d.Sections[si].Blocks {
			b := &d.Sections[si].Blocks[bi]
			if line >= b.StartLine && line <= b.EndLine {
				return b, true
			}
		}
	}
	return nil, false
}

func (d *Document) allStatements() []Statement {
	var out []Statement
	for _, sec := range d.Sections {
		out = append(out, sec.Statements...)
		for _, b := range sec.Blocks {
			out = append(out, b.Statements...)
		}
	}
	return out
}
