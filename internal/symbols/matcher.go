package symbols

import (
	"github.com/weinmann-emt/robotcode/internal/core/errors"
	"github.com/weinmann-emt/robotcode/internal/shared/util"
)

// VariableMatcher holds the canonical comparison form of a variable
// reference. Two references match when their normalized bases are equal,
// so `${My Var}`, `${my_var}` and `@{MYVAR}` all denote the same variable.
type VariableMatcher struct {
	// Name is the raw reference text including the sigil, kept for display.
	Name string
	// Base is the un-normalized body between the braces. It may itself
	// contain nested variable syntax; nested resolution happens elsewhere.
	Base string
	// NormalizedName is the identity key: lowercased, whitespace and
	// underscores stripped.
	NormalizedName string
}

// ParseVariable builds a matcher from reference text. The accepted grammar
// is a sigil (`$`, `@`, `&`, `%`) immediately followed by a brace-delimited
// body. Text without such a pattern yields a CodeInvalidVariable error;
// callers scanning plain text must treat that as an expected outcome.
func ParseVariable(text string) (VariableMatcher, error) {
	base, ok := searchVariableBase(text)
	if !ok {
		return VariableMatcher{}, errors.Newf(errors.CodeInvalidVariable, "invalid variable %q", text)
	}
	return VariableMatcher{
		Name:           text,
		Base:           base,
		NormalizedName: util.NormalizeName(base),
	}, nil
}

// searchVariableBase finds the first unescaped sigil-brace pattern and
// returns the body of its balanced brace group.
func searchVariableBase(text string) (string, bool) {
	for i := 0; i+1 < len(text); i++ {
		switch text[i] {
		case '$', '@', '&', '%':
		default:
			continue
		}
		if i > 0 && text[i-1] == '\\' {
			continue
		}
		if text[i+1] != '{' {
			continue
		}
		depth := 0
		for j := i + 1; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[i+2 : j], true
				}
			}
		}
		return "", false
	}
	return "", false
}

// FindVariableSpans returns the byte spans (start inclusive, end exclusive)
// of every top-level sigil-brace reference in text, in order of appearance.
func FindVariableSpans(text string) [][2]int {
	var spans [][2]int
	for i := 0; i+1 < len(text); i++ {
		switch text[i] {
		case '$', '@', '&', '%':
		default:
			continue
		}
		if i > 0 && text[i-1] == '\\' {
			continue
		}
		if text[i+1] != '{' {
			continue
		}
		depth := 0
		end := -1
		for j := i + 1; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = j + 1
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			break
		}
		spans = append(spans, [2]int{i, end})
		i = end - 1
	}
	return spans
}

// Matches reports whether both matchers normalize to the same name.
func (m VariableMatcher) Matches(o VariableMatcher) bool {
	return m.NormalizedName == o.NormalizedName
}

// MatchesString parses raw on the fly and compares normalized names. Text
// that is not a variable reference matches nothing. This lets call sites
// compare a definition's matcher directly against a raw token without a
// separate parse step.
func (m VariableMatcher) MatchesString(raw string) bool {
	o, err := ParseVariable(raw)
	if err != nil {
		return false
	}
	return m.Matches(o)
}

func (m VariableMatcher) String() string {
	return m.Name
}
