package symbols

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// VariableDefinitionType classifies a variable definition by origin and
// scope.
type VariableDefinitionType int

const (
	TypeVariable VariableDefinitionType = iota
	TypeLocalVariable
	TypeArgument
	TypeCommandLineVariable
	TypeBuiltinVariable
	TypeImportedVariable
	TypeEnvironmentVariable
	TypeVariableNotFound
)

func (t VariableDefinitionType) String() string {
	switch t {
	case TypeVariable:
		return "variable"
	case TypeLocalVariable:
		return "local variable"
	case TypeArgument:
		return "argument"
	case TypeCommandLineVariable:
		return "command line variable"
	case TypeBuiltinVariable:
		return "builtin variable"
	case TypeImportedVariable:
		return "imported variable"
	case TypeEnvironmentVariable:
		return "environment variable"
	case TypeVariableNotFound:
		return "variable not found"
	default:
		return "unknown"
	}
}

// VariableKey is the identity of a variable definition. Scope-unified
// definitions (every concrete classification) carry only type and name:
// within one scope a name denotes one logical variable no matter how many
// statements mention it. The plain TypeVariable form keeps its position so
// distinct spans stay distinct.
type VariableKey struct {
	Type     VariableDefinitionType
	Name     string
	Position EntityKey
}

// VariableDefinition is a variable symbol attached to a scope. HasValue,
// Resolvable and Value never participate in identity; the resolver may
// populate them after construction without disturbing any map keyed by
// VariableKey.
type VariableDefinition struct {
	SourceEntity
	Name      string
	NameToken *Token
	Type      VariableDefinitionType

	// KeywordRef is a non-owning key into the caller's keyword
	// documentation table, set for argument definitions only.
	KeywordRef string

	HasValue   bool
	Resolvable bool
	Value      interface{}

	scoped bool

	matcherOnce sync.Once
	matcher     VariableMatcher
	matcherErr  error
}

func (d *VariableDefinition) Key() VariableKey {
	key := VariableKey{Type: d.Type, Name: d.Name}
	if !d.scoped {
		key.Position = d.SourceEntity.Key()
	}
	return key
}

// NameRange returns the name token's span when present, else the full
// statement span.
func (d *VariableDefinition) NameRange() protocol.Range {
	if d.NameToken != nil {
		return RangeFromToken(*d.NameToken)
	}
	return d.Range()
}

// Matcher returns the memoized matcher for the definition's name. The
// computation is a pure function of Name, so a racing first access at
// worst recomputes the same value.
func (d *VariableDefinition) Matcher() (VariableMatcher, error) {
	d.matcherOnce.Do(func() {
		d.matcher, d.matcherErr = ParseVariable(d.Name)
	})
	return d.matcher, d.matcherErr
}

// SetValue records the resolved value. The transition is monotonic within
// an analysis pass and does not affect identity.
func (d *VariableDefinition) SetValue(v interface{}) {
	d.Value = v
	d.HasValue = true
}

// NewVariableDefinition builds an unscoped definition that keeps full
// positional identity.
func NewVariableDefinition(name string, entity SourceEntity, nameToken *Token) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeVariable,
	}
}

// NewLocalVariableDefinition builds a definition for a variable assigned
// inside a test or keyword body.
func NewLocalVariableDefinition(name string, entity SourceEntity, nameToken *Token) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeLocalVariable,
		scoped:       true,
	}
}

// NewBuiltinVariableDefinition builds a synthetic definition for a
// framework-provided variable such as ${CURDIR}. It has no source position
// and can be fetched from the runtime environment on demand.
func NewBuiltinVariableDefinition(name string) *VariableDefinition {
	return &VariableDefinition{
		Name:       name,
		Type:       TypeBuiltinVariable,
		Resolvable: true,
		scoped:     true,
	}
}

// NewCommandLineVariableDefinition builds a synthetic definition for a
// variable supplied on the command line.
func NewCommandLineVariableDefinition(name string) *VariableDefinition {
	return &VariableDefinition{
		Name:       name,
		Type:       TypeCommandLineVariable,
		Resolvable: true,
		scoped:     true,
	}
}

// NewArgumentDefinition builds a definition for a keyword argument.
// keywordRef keys into the caller's keyword documentation table.
func NewArgumentDefinition(name string, entity SourceEntity, nameToken *Token, keywordRef string) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeArgument,
		KeywordRef:   keywordRef,
		scoped:       true,
	}
}

// NewImportedVariableDefinition builds a definition for a variable coming
// from a variables-file import.
func NewImportedVariableDefinition(name string, entity SourceEntity, nameToken *Token) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeImportedVariable,
		scoped:       true,
	}
}

// NewEnvironmentVariableDefinition builds a definition for a `%{...}`
// reference whose value comes from the process environment.
func NewEnvironmentVariableDefinition(name string, entity SourceEntity, nameToken *Token) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeEnvironmentVariable,
		Resolvable:   true,
		scoped:       true,
	}
}

// NewVariableNotFoundDefinition builds the terminal sentinel for a
// reference with no matching definition. It carries the reference's own
// span so diagnostics can point at the exact usage site; it is never
// resolvable and never gains a value.
func NewVariableNotFoundDefinition(name string, entity SourceEntity, nameToken *Token) *VariableDefinition {
	return &VariableDefinition{
		SourceEntity: entity,
		Name:         name,
		NameToken:    nameToken,
		Type:         TypeVariableNotFound,
		scoped:       true,
	}
}
