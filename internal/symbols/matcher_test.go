package symbols

import (
	"testing"

	"github.com/weinmann-emt/robotcode/internal/core/errors"
)

func TestParseVariable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		input      string
		base       string
		normalized string
	}{
		{name: "Scalar", input: "${var}", base: "var", normalized: "var"},
		{name: "List", input: "@{items}", base: "items", normalized: "items"},
		{name: "Dict", input: "&{config}", base: "config", normalized: "config"},
		{name: "Environment", input: "%{HOME}", base: "HOME", normalized: "home"},
		{name: "Spaces", input: "${My Var}", base: "My Var", normalized: "myvar"},
		{name: "Underscores", input: "${my_var}", base: "my_var", normalized: "myvar"},
		{name: "Nested", input: "${outer_${inner}}", base: "outer_${inner}", normalized: "outer${inner}"},
		{name: "EmbeddedInText", input: "prefix ${var} suffix", base: "var", normalized: "var"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := ParseVariable(tc.input)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if m.Base != tc.base {
				t.Errorf("base: expected %q, got %q", tc.base, m.Base)
			}
			if m.NormalizedName != tc.normalized {
				t.Errorf("normalized: expected %q, got %q", tc.normalized, m.NormalizedName)
			}
			if m.Name != tc.input {
				t.Errorf("name: expected %q, got %q", tc.input, m.Name)
			}
		})
	}
}

func TestParseVariableInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: ""},
		{name: "PlainText", input: "just text"},
		{name: "SigilWithoutDelimiter", input: "@missing"},
		{name: "Unclosed", input: "${unclosed"},
		{name: "EscapedSigil", input: `\${escaped}`},
		{name: "BareSigil", input: "$"},
		{name: "WrongSigil", input: "#{nope}"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseVariable(tc.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.IsInvalidVariable(err) {
				t.Fatalf("expected INVALID_VARIABLE code, got %v", err)
			}
		})
	}
}

func TestMatcherEquality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		left     string
		right    string
		expected bool
	}{
		{name: "Identical", left: "${var}", right: "${var}", expected: true},
		{name: "CaseInsensitive", left: "${MYVAR}", right: "${myvar}", expected: true},
		{name: "SpaceVsUnderscore", left: "${My Var}", right: "${my_var}", expected: true},
		{name: "DifferentSigils", left: "${var}", right: "@{var}", expected: true},
		{name: "DifferentNames", left: "${var}", right: "${other}", expected: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l, err := ParseVariable(tc.left)
			if err != nil {
				t.Fatalf("parse left: %v", err)
			}
			r, err := ParseVariable(tc.right)
			if err != nil {
				t.Fatalf("parse right: %v", err)
			}
			if got := l.Matches(r); got != tc.expected {
				t.Errorf("Matches: expected %v, got %v", tc.expected, got)
			}
			if got := l.MatchesString(tc.right); got != tc.expected {
				t.Errorf("MatchesString: expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestMatcherMatchesItsOwnText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"${var}", "@{items}", "&{config}", "%{PATH}", "${Complex Name_1}"} {
		m, err := ParseVariable(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if !m.MatchesString(text) {
			t.Errorf("matcher for %q does not match its own text", text)
		}
	}
}

func TestMatcherMatchesStringInvalidInput(t *testing.T) {
	t.Parallel()

	m, err := ParseVariable("${var}")
	if err != nil {
		t.Fatal(err)
	}
	if m.MatchesString("not a variable") {
		t.Error("plain text must not match")
	}
}

// Normalized names are the identity keys; equal matchers must share one
// even when their raw spellings differ.
func TestMatcherNormalizedNameAsKey(t *testing.T) {
	t.Parallel()

	a, _ := ParseVariable("${My Var}")
	b, _ := ParseVariable("${MY_VAR}")
	if !a.Matches(b) {
		t.Fatal("expected matchers to be equal")
	}
	if a.NormalizedName != b.NormalizedName {
		t.Error("equal matchers must have identical normalized names")
	}

	index := map[string]int{a.NormalizedName: 1}
	if index[b.NormalizedName] != 1 {
		t.Error("normalized name must work as a lookup key for equal matchers")
	}
}
