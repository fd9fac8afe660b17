package symbols

import (
	"sync"
	"testing"
)

func span(line int, source string) SourceEntity {
	return SourceEntity{LineNo: line, ColOffset: 4, EndLineNo: line, EndColOffset: 12, Source: source}
}

func TestScopedDefinitionIdentity(t *testing.T) {
	t.Parallel()

	t.Run("PositionIndependent", func(t *testing.T) {
		t.Parallel()
		a := NewLocalVariableDefinition("${var}", span(3, "a.robot"), nil)
		b := NewLocalVariableDefinition("${var}", span(9, "b.robot"), nil)
		if a.Key() != b.Key() {
			t.Error("same name and classification must share a key across positions and sources")
		}
	})

	t.Run("ClassificationDistinguishes", func(t *testing.T) {
		t.Parallel()
		local := NewLocalVariableDefinition("${var}", span(3, "a.robot"), nil)
		arg := NewArgumentDefinition("${var}", span(3, "a.robot"), nil, "")
		if local.Key() == arg.Key() {
			t.Error("local variable and argument with the same name must never be equal")
		}
	})

	t.Run("NameDistinguishes", func(t *testing.T) {
		t.Parallel()
		a := NewLocalVariableDefinition("${var}", span(3, "a.robot"), nil)
		b := NewLocalVariableDefinition("${other}", span(3, "a.robot"), nil)
		if a.Key() == b.Key() {
			t.Error("different names must have distinct keys")
		}
	})
}

func TestUnscopedDefinitionKeepsPosition(t *testing.T) {
	t.Parallel()

	a := NewVariableDefinition("${var}", span(3, "a.robot"), nil)
	b := NewVariableDefinition("${var}", span(9, "a.robot"), nil)
	c := NewVariableDefinition("${var}", span(3, "a.robot"), nil)

	if a.Key() == b.Key() {
		t.Error("unscoped definitions at different spans must differ")
	}
	if a.Key() != c.Key() {
		t.Error("unscoped definitions at the same span must be equal")
	}
}

func TestDefaultResolvableFlags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		def        *VariableDefinition
		defType    VariableDefinitionType
		resolvable bool
	}{
		{name: "Local", def: NewLocalVariableDefinition("${v}", span(1, "a"), nil), defType: TypeLocalVariable, resolvable: false},
		{name: "Builtin", def: NewBuiltinVariableDefinition("${CURDIR}"), defType: TypeBuiltinVariable, resolvable: true},
		{name: "CommandLine", def: NewCommandLineVariableDefinition("${HOST}"), defType: TypeCommandLineVariable, resolvable: true},
		{name: "Argument", def: NewArgumentDefinition("${v}", span(1, "a"), nil, "kw"), defType: TypeArgument, resolvable: false},
		{name: "Imported", def: NewImportedVariableDefinition("${v}", span(1, "a"), nil), defType: TypeImportedVariable, resolvable: false},
		{name: "Environment", def: NewEnvironmentVariableDefinition("%{HOME}", span(1, "a"), nil), defType: TypeEnvironmentVariable, resolvable: true},
		{name: "NotFound", def: NewVariableNotFoundDefinition("${missing}", span(1, "a"), nil), defType: TypeVariableNotFound, resolvable: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if tc.def.Type != tc.defType {
				t.Errorf("type: expected %v, got %v", tc.defType, tc.def.Type)
			}
			if tc.def.Resolvable != tc.resolvable {
				t.Errorf("resolvable: expected %v, got %v", tc.resolvable, tc.def.Resolvable)
			}
			if tc.def.HasValue {
				t.Error("definitions must start without a value")
			}
		})
	}
}

func TestSetValueDoesNotChangeIdentity(t *testing.T) {
	t.Parallel()

	def := NewBuiltinVariableDefinition("${CURDIR}")
	before := def.Key()

	def.SetValue("/workspace/suite")

	if !def.HasValue {
		t.Error("expected HasValue after SetValue")
	}
	if def.Value != "/workspace/suite" {
		t.Errorf("unexpected value %v", def.Value)
	}
	if def.Key() != before {
		t.Error("SetValue must not change the identity key")
	}

	other := NewBuiltinVariableDefinition("${CURDIR}")
	if def.Key() != other.Key() {
		t.Error("resolved and unresolved definition of the same name must stay equal")
	}
}

func TestMatcherMemoized(t *testing.T) {
	t.Parallel()

	def := NewLocalVariableDefinition("${My Var}", span(2, "a.robot"), nil)

	first, err := def.Matcher()
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	if first.NormalizedName != "myvar" {
		t.Errorf("expected normalized myvar, got %q", first.NormalizedName)
	}

	second, err := def.Matcher()
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}
	if first != second {
		t.Error("memoized matcher must be stable across accesses")
	}
}

func TestMatcherConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	def := NewLocalVariableDefinition("${var}", span(2, "a.robot"), nil)

	var wg sync.WaitGroup
	results := make([]VariableMatcher, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := def.Matcher()
			if err != nil {
				t.Errorf("matcher: %v", err)
				return
			}
			results[i] = m
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent first access must observe one memoized matcher")
		}
	}
}

func TestDefinitionMatchesReference(t *testing.T) {
	t.Parallel()

	// Scenario: reference ${My Var} against a stored definition ${MY_VAR}.
	def := NewLocalVariableDefinition("${MY_VAR}", span(2, "a.robot"), nil)
	m, err := def.Matcher()
	if err != nil {
		t.Fatal(err)
	}
	if !m.MatchesString("${My Var}") {
		t.Error("expected ${My Var} to match definition ${MY_VAR}")
	}
}

func TestNameRangePrefersNameToken(t *testing.T) {
	t.Parallel()

	entity := SourceEntity{LineNo: 4, ColOffset: 0, EndLineNo: 4, EndColOffset: 30, Source: "a.robot"}
	tok := &Token{Type: TokenVariable, Value: "${var}", LineNo: 4, ColOffset: 0, EndColOffset: 6}

	withToken := NewLocalVariableDefinition("${var}", entity, tok)
	r := withToken.NameRange()
	if r.End.Character != 6 {
		t.Errorf("expected name token span end 6, got %d", r.End.Character)
	}

	withoutToken := NewLocalVariableDefinition("${var}", entity, nil)
	r = withoutToken.NameRange()
	if r.End.Character != 30 {
		t.Errorf("expected statement span end 30, got %d", r.End.Character)
	}
}

func TestVariableNotFoundCarriesReferenceSpan(t *testing.T) {
	t.Parallel()

	ref := SourceEntity{LineNo: 12, ColOffset: 8, EndLineNo: 12, EndColOffset: 20, Source: "a.robot"}
	def := NewVariableNotFoundDefinition("${UNDEFINED}", ref, nil)

	r := def.Range()
	if r.Start.Line != 11 || r.Start.Character != 8 || r.End.Character != 20 {
		t.Errorf("sentinel must keep the reference span, got %+v", r)
	}
	if def.Resolvable || def.HasValue {
		t.Error("sentinel must never be resolvable nor carry a value")
	}
}
