package rfparser

import (
	"strings"

	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// Parse scans a Robot Framework document into sections, blocks and
// statements. Scanning never fails: malformed lines are represented as-is
// and left for the semantic layers to diagnose.
func Parse(source string, content []byte) *Document {
	doc := &Document{Source: source}
	lines := strings.Split(string(content), "\n")

	var section *Section
	var block *Block

	closeBlock := func() {
		if section != nil && block != nil {
			section.Blocks = append(section.Blocks, *block)
		}
		block = nil
	}
	closeSection := func() {
		closeBlock()
		if section != nil {
			doc.Sections = append(doc.Sections, *section)
		}
		section = nil
	}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "*") {
			closeSection()
			section = newSection(line, lineNo)
			continue
		}
		if section == nil {
			// Content before the first section header has no meaning.
			continue
		}

		cells := splitCells(line, lineNo)
		if len(cells) == 0 {
			continue
		}

		// Continuation rows extend the previous statement.
		if cells[0].Value == "..." {
			rest := cells[1:]
			if stmt := lastStatement(section, block); stmt != nil {
				stmt.Tokens = append(stmt.Tokens, rest...)
				stmt.EndLine = lineNo
			}
			extendTo(section, block, lineNo)
			continue
		}

		switch section.Kind {
		case SectionTestCases, SectionKeywords:
			if cells[0].ColOffset == 0 {
				closeBlock()
				name := cells[0]
				name.Type = symbols.TokenName
				block = &Block{Name: name, StartLine: lineNo, EndLine: lineNo}
				if len(cells) > 1 {
					block.Statements = append(block.Statements, Statement{
						Tokens:    cells[1:],
						StartLine: lineNo,
						EndLine:   lineNo,
					})
				}
			} else if block != nil {
				block.Statements = append(block.Statements, Statement{
					Tokens:    cells,
					StartLine: lineNo,
					EndLine:   lineNo,
				})
				block.EndLine = lineNo
			}
		default:
			section.Statements = append(section.Statements, Statement{
				Tokens:    cells,
				StartLine: lineNo,
				EndLine:   lineNo,
			})
		}
		extendTo(section, block, lineNo)
	}
	closeSection()

	return doc
}

func newSection(line string, lineNo int) *Section {
	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
	kind := SectionUnknown
	switch strings.ToLower(name) {
	case "settings", "setting":
		kind = SectionSettings
	case "variables", "variable":
		kind = SectionVariables
	case "test cases", "test case", "tasks", "task":
		kind = SectionTestCases
	case "keywords", "keyword":
		kind = SectionKeywords
	case "comments", "comment":
		kind = SectionComments
	}
	return &Section{
		Kind: kind,
		Header: symbols.Token{
			Type:         symbols.TokenSection,
			Value:        strings.TrimSpace(line),
			LineNo:       lineNo,
			ColOffset:    0,
			EndColOffset: len(strings.TrimRight(line, " \t")),
		},
		StartLine: lineNo,
		EndLine:   lineNo,
	}
}

func extendTo(section *Section, block *Block, lineNo int) {
	if section != nil && lineNo > section.EndLine {
		section.EndLine = lineNo
	}
	if block != nil && lineNo > block.EndLine {
		block.EndLine = lineNo
	}
}

func lastStatement(section *Section, block *Block) *Statement {
	if block != nil && len(block.Statements) > 0 {
		return &block.Statements[len(block.Statements)-1]
	}
	if section != nil && len(section.Statements) > 0 {
		return &section.Statements[len(section.Statements)-1]
	}
	return nil
}

// splitCells breaks a line into tokens on runs of two or more spaces or a
// tab. A cell starting with `#` ends the data portion of the line.
func splitCells(line string, lineNo int) []symbols.Token {
	var cells []symbols.Token
	i := 0
	for i < len(line) {
		// Skip separator.
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) {
			if line[i] == '\t' {
				break
			}
			if line[i] == ' ' && i+1 < len(line) && line[i+1] == ' ' {
				break
			}
			if line[i] == ' ' && i+1 >= len(line) {
				break
			}
			i++
		}
		value := strings.TrimRight(line[start:i], " ")
		if strings.HasPrefix(value, "#") {
			break
		}
		if value != "" {
			cells = append(cells, symbols.Token{
				Type:         classifyCell(value),
				Value:        value,
				LineNo:       lineNo,
				ColOffset:    start,
				EndColOffset: start + len(value),
			})
		}
	}
	return cells
}

func classifyCell(value string) symbols.TokenType {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return symbols.TokenSetting
	}
	if len(value) > 1 && value[1] == '{' {
		switch value[0] {
		case '$', '@', '&', '%':
			return symbols.TokenVariable
		}
	}
	return symbols.TokenArgument
}
