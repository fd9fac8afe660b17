package features

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/rfparser"
)

// FoldingOptions carries the client capabilities that shape folding
// results.
type FoldingOptions struct {
	// LineFoldingOnly suppresses character offsets when the client folds
	// whole lines.
	LineFoldingOnly bool
}

// FoldingRanges computes foldable regions: one per section, one per test
// or keyword block, and one per continuation statement spanning multiple
// lines. Single-line regions are skipped.
func FoldingRanges(doc *rfparser.Document, opts FoldingOptions) []protocol.FoldingRange {
	var out []protocol.FoldingRange

	add := func(startLine, endLine, endCol int, kind string) {
		if endLine <= startLine {
			return
		}
		fr := protocol.FoldingRange{
			StartLine: protocol.UInteger(startLine - 1),
			EndLine:   protocol.UInteger(endLine - 1),
		}
		if kind != "" {
			fr.Kind = strPtr(kind)
		}
		if !opts.LineFoldingOnly && endCol > 0 {
			fr.EndCharacter = uintPtr(endCol)
		}
		out = append(out, fr)
	}

	for si := range doc.Sections {
		sec := &doc.Sections[si]
		kind := string(protocol.FoldingRangeKindRegion)
		switch sec.Kind {
		case rfparser.SectionSettings:
			kind = string(protocol.FoldingRangeKindImports)
		case rfparser.SectionComments:
			kind = string(protocol.FoldingRangeKindComment)
		}
		add(sec.StartLine, sec.EndLine, lastColumn(sec.Statements, sec.Blocks), kind)

		for bi := range sec.Blocks {
			block := &sec.Blocks[bi]
			add(block.StartLine, block.EndLine, lastColumn(block.Statements, nil), string(protocol.FoldingRangeKindRegion))
			for _, stmt := range block.Statements {
				add(stmt.StartLine, stmt.EndLine, lastColumn([]rfparser.Statement{stmt}, nil), "")
			}
		}
	}
	return out
}

// lastColumn returns the end column of the final token on the last line
// of the region, or 0 when the region has no tokens.
func lastColumn(stmts []rfparser.Statement, blocks []rfparser.Block) int {
	col, line := 0, 0
	consider := func(stmt rfparser.Statement) {
		for _, tok := range stmt.Tokens {
			if tok.LineNo > line || (tok.LineNo == line && tok.EndColOffset > col) {
				line, col = tok.LineNo, tok.EndColOffset
			}
		}
	}
	for _, stmt := range stmts {
		consider(stmt)
	}
	for _, b := range blocks {
		for _, stmt := range b.Statements {
			consider(stmt)
		}
	}
	return col
}
