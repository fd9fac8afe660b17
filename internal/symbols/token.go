package symbols

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type TokenType string

const (
	TokenSection    TokenType = "SECTION"
	TokenName       TokenType = "NAME"
	TokenArgument   TokenType = "ARGUMENT"
	TokenVariable   TokenType = "VARIABLE"
	TokenKeywordCall TokenType = "KEYWORD_CALL"
	TokenSetting     TokenType = "SETTING"
	TokenComment     TokenType = "COMMENT"
)

// Token is a single lexical cell produced by the statement scanner.
// Lines are 1-based, columns 0-based; tokens never span lines.
type Token struct {
	Type         TokenType
	Value        string
	LineNo       int
	ColOffset    int
	EndColOffset int
}

// RangeFromToken converts a token span to a protocol range.
func RangeFromToken(t Token) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(t.LineNo - 1),
			Character: protocol.UInteger(t.ColOffset),
		},
		End: protocol.Position{
			Line:      protocol.UInteger(t.LineNo - 1),
			Character: protocol.UInteger(t.EndColOffset),
		},
	}
}

// PositionInRange reports whether p lies within r, start inclusive and end
// exclusive, following the protocol convention.
func PositionInRange(r protocol.Range, p protocol.Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character >= r.End.Character {
		return false
	}
	return true
}
