package namespace

import (
	"strings"
	"time"

	"github.com/google/uuid"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/weinmann-emt/robotcode/internal/rfparser"
	"github.com/weinmann-emt/robotcode/internal/shared/observability"
	"github.com/weinmann-emt/robotcode/internal/shared/util"
	"github.com/weinmann-emt/robotcode/internal/symbols"
)

// Options supplies the synthetic definition tables for one build.
type Options struct {
	// BuiltinVariables lists framework-provided names, e.g. "${CURDIR}".
	BuiltinVariables []string
	// CommandLineVariables maps names ("${HOST}") to their supplied values.
	CommandLineVariables map[string]string
}

type builder struct {
	ns *Namespace
	// defSites marks statement cells whose leading text is a definition
	// name, so the reference walk does not count a definition as its own
	// usage. Keyed by line then column of the name span start.
	defSites map[[2]int]bool
}

// Build constructs the namespace for one parsed document. The returned
// Namespace is complete and internally consistent; only value resolution
// may touch it afterwards.
func Build(doc *rfparser.Document, opts Options) *Namespace {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("build").Observe(time.Since(start).Seconds())
		observability.DocumentsAnalyzed.Inc()
	}()

	b := &builder{
		ns: &Namespace{
			PassID:      uuid.NewString(),
			Source:      doc.Source,
			Doc:         doc,
			importIndex: make(map[symbols.ImportKey]symbols.ImportEntity),
			suiteVars:   make(map[string]*symbols.VariableDefinition),
			blockVars:   make(map[string]map[string]*symbols.VariableDefinition),
			cmdlineVars: make(map[string]*symbols.VariableDefinition),
			builtinVars: make(map[string]*symbols.VariableDefinition),
			envVars:     make(map[string]*symbols.VariableDefinition),
			references:  make(map[symbols.VariableKey][]protocol.Range),
			defsByKey:   make(map[symbols.VariableKey]*symbols.VariableDefinition),
		},
		defSites: make(map[[2]int]bool),
	}

	b.addGlobals(opts)

	for si := range doc.Sections {
		sec := &doc.Sections[si]
		switch sec.Kind {
		case rfparser.SectionSettings:
			for _, stmt := range sec.Statements {
				b.collectImport(stmt)
			}
		case rfparser.SectionVariables:
			for _, stmt := range sec.Statements {
				b.collectSuiteVariable(stmt)
			}
		case rfparser.SectionTestCases, rfparser.SectionKeywords:
			for bi := range sec.Blocks {
				b.collectBlockDefinitions(&sec.Blocks[bi], sec.Kind == rfparser.SectionKeywords)
			}
		}
	}

	b.collectReferences(doc)

	return b.ns
}

func (b *builder) addGlobals(opts Options) {
	for _, name := range opts.BuiltinVariables {
		def := symbols.NewBuiltinVariableDefinition(name)
		if b.register(def) {
			b.ns.builtinVars[mustNormalize(name)] = def
		}
	}
	for _, name := range util.SortedStringKeys(opts.CommandLineVariables) {
		def := symbols.NewCommandLineVariableDefinition(name)
		if b.register(def) {
			b.ns.cmdlineVars[mustNormalize(name)] = def
		}
	}
}

// register adds the definition to the pass-wide indexes. Definitions whose
// identity key is already present are collapsed onto the first instance.
func (b *builder) register(def *symbols.VariableDefinition) bool {
	key := def.Key()
	if _, ok := b.ns.defsByKey[key]; ok {
		return false
	}
	b.ns.defsByKey[key] = def
	b.ns.definitions = append(b.ns.definitions, def)
	return true
}

func mustNormalize(name string) string {
	if m, err := symbols.ParseVariable(name); err == nil {
		return m.NormalizedName
	}
	return util.NormalizeName(name)
}

func statementEntity(stmt rfparser.Statement, source string) symbols.SourceEntity {
	first := stmt.Tokens[0]
	last := stmt.Tokens[len(stmt.Tokens)-1]
	return symbols.SourceEntity{
		LineNo:       first.LineNo,
		ColOffset:    first.ColOffset,
		EndLineNo:    last.LineNo,
		EndColOffset: last.EndColOffset,
		Source:       source,
	}
}

func (b *builder) collectImport(stmt rfparser.Statement) {
	if len(stmt.Tokens) < 2 {
		return
	}
	setting := strings.ToLower(stmt.Tokens[0].Value)
	entity := statementEntity(stmt, b.ns.Source)
	nameToken := stmt.Tokens[1]
	nameToken.Type = symbols.TokenName

	var imp symbols.ImportEntity
	switch setting {
	case "library":
		args := make([]string, 0)
		alias := ""
		rest := stmt.Tokens[2:]
		if n := len(rest); n >= 2 {
			marker := rest[n-2].Value
			if marker == "AS" || marker == "WITH NAME" {
				alias = rest[n-1].Value
				rest = rest[:n-2]
			}
		}
		for _, tok := range rest {
			args = append(args, tok.Value)
		}
		imp = symbols.LibraryImport{
			SourceEntity: entity,
			Name:         nameToken.Value,
			NameToken:    &nameToken,
			Args:         args,
			Alias:        alias,
		}
	case "resource":
		imp = symbols.ResourceImport{
			SourceEntity: entity,
			Name:         nameToken.Value,
			NameToken:    &nameToken,
		}
	case "variables":
		args := make([]string, 0, len(stmt.Tokens)-2)
		for _, tok := range stmt.Tokens[2:] {
			args = append(args, tok.Value)
		}
		imp = symbols.VariablesImport{
			SourceEntity: entity,
			Name:         nameToken.Value,
			NameToken:    &nameToken,
			Args:         args,
		}
	default:
		return
	}

	key := imp.Key()
	if _, ok := b.ns.importIndex[key]; ok {
		return
	}
	b.ns.importIndex[key] = imp
	b.ns.imports = append(b.ns.imports, imp)
}

// definitionName trims an assignment or default-value suffix off a
// variable cell: "${x} =" and "${port}=8270" both name "${x}" / "${port}".
func definitionName(cell string) (string, bool) {
	spans := symbols.FindVariableSpans(cell)
	if len(spans) == 0 || spans[0][0] != 0 {
		return "", false
	}
	return cell[:spans[0][1]], true
}

func nameTokenFor(cell symbols.Token, name string) *symbols.Token {
	tok := symbols.Token{
		Type:         symbols.TokenVariable,
		Value:        name,
		LineNo:       cell.LineNo,
		ColOffset:    cell.ColOffset,
		EndColOffset: cell.ColOffset + len(name),
	}
	return &tok
}

func (b *builder) collectSuiteVariable(stmt rfparser.Statement) {
	cell := stmt.Tokens[0]
	if cell.Type != symbols.TokenVariable {
		return
	}
	name, ok := definitionName(cell.Value)
	if !ok {
		return
	}
	def := symbols.NewVariableDefinition(name, statementEntity(stmt, b.ns.Source), nameTokenFor(cell, name))
	b.register(def)
	b.ns.suiteVars[mustNormalize(name)] = def
	b.defSites[[2]int{cell.LineNo, cell.ColOffset}] = true
}

func (b *builder) blockScope(blockKey string) map[string]*symbols.VariableDefinition {
	scope, ok := b.ns.blockVars[blockKey]
	if !ok {
		scope = make(map[string]*symbols.VariableDefinition)
		b.ns.blockVars[blockKey] = scope
	}
	return scope
}

func (b *builder) collectBlockDefinitions(block *rfparser.Block, isKeyword bool) {
	key := BlockKey(block)
	scope := b.blockScope(key)

	for _, stmt := range block.Statements {
		if len(stmt.Tokens) == 0 {
			continue
		}
		first := stmt.Tokens[0]

		if isKeyword && first.Type == symbols.TokenSetting && strings.EqualFold(first.Value, "[arguments]") {
			for _, cell := range stmt.Tokens[1:] {
				if cell.Type != symbols.TokenVariable {
					continue
				}
				name, ok := definitionName(cell.Value)
				if !ok {
					continue
				}
				def := symbols.NewArgumentDefinition(
					name,
					symbols.EntityFromToken(cell, b.ns.Source),
					nameTokenFor(cell, name),
					block.Name.Value,
				)
				if b.register(def) {
					scope[mustNormalize(name)] = def
				}
				b.defSites[[2]int{cell.LineNo, cell.ColOffset}] = true
			}
			continue
		}

		// Leading variable cells followed by a keyword call are an
		// assignment; a statement of nothing but variable cells is not.
		assigned := 0
		for assigned < len(stmt.Tokens) && stmt.Tokens[assigned].Type == symbols.TokenVariable {
			assigned++
		}
		if assigned == 0 || assigned >= len(stmt.Tokens) {
			continue
		}
		for _, cell := range stmt.Tokens[:assigned] {
			name, ok := definitionName(cell.Value)
			if !ok {
				continue
			}
			def := symbols.NewLocalVariableDefinition(
				name,
				symbols.EntityFromToken(cell, b.ns.Source),
				nameTokenFor(cell, name),
			)
			if b.register(def) {
				scope[mustNormalize(name)] = def
			}
			b.defSites[[2]int{cell.LineNo, cell.ColOffset}] = true
		}
	}
}

// collectReferences walks every token after all definitions exist and
// records usage spans, creating environment definitions and not-found
// sentinels at the exact reference site.
func (b *builder) collectReferences(doc *rfparser.Document) {
	for si := range doc.Sections {
		sec := &doc.Sections[si]
		for _, stmt := range sec.Statements {
			b.scanStatement(stmt, "")
		}
		for bi := range sec.Blocks {
			block := &sec.Blocks[bi]
			key := BlockKey(block)
			for _, stmt := range block.Statements {
				b.scanStatement(stmt, key)
			}
		}
	}
}

func (b *builder) scanStatement(stmt rfparser.Statement, blockKey string) {
	for _, tok := range stmt.Tokens {
		b.scanText(tok.Value, tok.LineNo, tok.ColOffset, blockKey, b.defSites[[2]int{tok.LineNo, tok.ColOffset}])
	}
}

// scanText records every variable reference in text. skipLeading marks the
// leading span as a definition site rather than a usage. Nested references
// inside a base are scanned recursively.
func (b *builder) scanText(text string, lineNo, colOffset int, blockKey string, skipLeading bool) {
	for _, span := range symbols.FindVariableSpans(text) {
		ref := text[span[0]:span[1]]
		refCol := colOffset + span[0]

		// Recurse into the body for nested references.
		inner := ref[2 : len(ref)-1]
		b.scanText(inner, lineNo, refCol+2, blockKey, false)

		if skipLeading && span[0] == 0 {
			continue
		}
		b.recordReference(ref, lineNo, refCol, blockKey)
	}
}

func (b *builder) recordReference(ref string, lineNo, colOffset int, blockKey string) {
	entity := symbols.SourceEntity{
		LineNo:       lineNo,
		ColOffset:    colOffset,
		EndLineNo:    lineNo,
		EndColOffset: colOffset + len(ref),
		Source:       b.ns.Source,
	}

	if ref[0] == '%' {
		b.recordEnvironmentReference(ref, entity)
		return
	}

	m, err := symbols.ParseVariable(ref)
	if err != nil {
		return
	}
	if def, ok := b.ns.resolveName(m.NormalizedName, blockKey); ok {
		b.ns.references[def.Key()] = append(b.ns.references[def.Key()], entity.Range())
		observability.ResolverLookups.WithLabelValues("found").Inc()
		return
	}

	sentinel := symbols.NewVariableNotFoundDefinition(ref, entity, nil)
	b.ns.unresolved = append(b.ns.unresolved, sentinel)
	observability.ResolverLookups.WithLabelValues("not_found").Inc()
}

func (b *builder) recordEnvironmentReference(ref string, entity symbols.SourceEntity) {
	normalized := mustNormalize(ref)
	def, ok := b.ns.envVars[normalized]
	if !ok {
		def = symbols.NewEnvironmentVariableDefinition(ref, entity, nil)
		b.ns.envVars[normalized] = def
		b.register(def)
	}
	b.ns.references[def.Key()] = append(b.ns.references[def.Key()], entity.Range())
	observability.ResolverLookups.WithLabelValues("environment").Inc()
}
