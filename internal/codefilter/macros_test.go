package codefilter

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
)

func newDefaultStripper(t *testing.T) *MacroStripper {
	t.Helper()
	m, err := NewMacroStripper(DefaultMacroRules())
	require.NoError(t, err)
	return m
}

func TestMacroStripper_Apply(t *testing.T) {
	m := newDefaultStripper(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ignore call", "DOXYGEN_IGNORE(int x = 5;) return 0;", " return 0;"},
		{"ellipsis with nested parens", "DOXYGEN_ELLIPSIS(foo(1,2))", Ellipsis},
		{"nested span replaced as one unit", "f(DOXYGEN_ELLIPSIS(foo(bar), baz));", "f(" + Ellipsis + ");"},
		{"no markers", "int main() { return 0; }", "int main() { return 0; }"},
		{"empty input", "", ""},
		{"multiple calls of both markers",
			"a DOXYGEN_IGNORE(x) b DOXYGEN_ELLIPSIS() c DOXYGEN_IGNORE((y)) d",
			"a  b " + Ellipsis + " c  d"},
		{"marker nested inside another marker",
			"DOXYGEN_IGNORE(DOXYGEN_ELLIPSIS(x)) done",
			" done"},
		{"space before argument list", "a DOXYGEN_IGNORE (x) b", "a  b"},
		{"newline before argument list", "DOXYGEN_ELLIPSIS\n(1,2)", Ellipsis},
		{"tab before nested argument list", "f(DOXYGEN_ELLIPSIS\t(g(1)));", "f(" + Ellipsis + ");"},
		{"longer identifier is not a marker", "DOXYGEN_IGNORE_ALL(x);", "DOXYGEN_IGNORE_ALL(x);"},
		{"multiline argument",
			"Foo foo{DOXYGEN_ELLIPSIS(\n    a,\n    (b)\n)};",
			"Foo foo{" + Ellipsis + "};"},
		{"non-ascii text around call", "// αβ DOXYGEN_IGNORE(γ) δ", "// αβ  δ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Apply(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), len(tt.in))
		})
	}
}

func TestMacroStripper_RemovesAllMarkerCallsAndIsIdempotent(t *testing.T) {
	m := newDefaultStripper(t)
	inputs := []string{
		"DOXYGEN_IGNORE(a(b(c)))DOXYGEN_ELLIPSIS(d)DOXYGEN_IGNORE(e)",
		"x = DOXYGEN_ELLIPSIS(1, (2), ((3)));\ny = DOXYGEN_IGNORE(z);",
		"DOXYGEN_IGNODOXYGEN_IGNORE(x)RE(y) tail",
		"a DOXYGEN_IGNORE (x) b DOXYGEN_ELLIPSIS\n(1, 2)",
	}
	for _, in := range inputs {
		once, err := m.Apply(in)
		require.NoError(t, err)
		for _, r := range m.Rules() {
			assert.NotContains(t, once, r.Marker, "input %q", in)
		}
		twice, err := m.Apply(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestMacroStripper_KeepsParenthesesBalanced(t *testing.T) {
	m := newDefaultStripper(t)
	inputs := []string{
		"f(DOXYGEN_ELLIPSIS(foo(bar), baz));",
		"g(a, DOXYGEN_IGNORE((b), c(d)) e) + h()",
		"if (x) { DOXYGEN_IGNORE (y(z)); }",
		"((DOXYGEN_ELLIPSIS\n(((1)))))",
	}
	for _, in := range inputs {
		require.Equal(t, strings.Count(in, "("), strings.Count(in, ")"), "input %q", in)
		out, err := m.Apply(in)
		require.NoError(t, err)
		assert.Equal(t, strings.Count(out, "("), strings.Count(out, ")"), "output %q", out)
		assert.True(t, balanced(out), "output %q", out)
	}
}

// balanced reports whether no prefix of s closes more parentheses than it opens
// and the totals match.
func balanced(s string) bool {
	depth := 0
	for _, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func TestMacroStripper_CallFormedByReplacement(t *testing.T) {
	m := newDefaultStripper(t)
	got, err := m.Apply("DOXYGEN_IGNODOXYGEN_IGNORE(x)RE(y) tail")
	require.NoError(t, err)
	assert.Equal(t, " tail", got)
}

func TestMacroStripper_UnmatchedParenthesis(t *testing.T) {
	m := newDefaultStripper(t)

	for _, in := range []string{
		"DOXYGEN_IGNORE(int x = 5;",
		"ok DOXYGEN_ELLIPSIS(foo(1, 2)",
		"DOXYGEN_IGNORE(x) DOXYGEN_IGNORE(",
		"DOXYGEN_IGNORE (x",
		"DOXYGEN_IGNORE(y) z DOXYGEN_ELLIPSIS",
		"#define DOXYGEN_IGNORE",
		"DOXYGEN_ELLIPSIS; f(1)",
	} {
		out, err := m.Apply(in)
		require.Error(t, err, in)
		assert.Empty(t, out)
		assert.ErrorIs(t, err, ErrUnmatchedParenthesis)
		assert.True(t, derrors.IsCategory(err, derrors.CategoryFilter))
		assert.True(t, derrors.IsFatal(err))

		de, ok := derrors.As(err)
		require.True(t, ok)
		assert.Equal(t, in, de.Context["snippet"])
		assert.True(t, strings.HasPrefix(de.Context["marker"].(string), "DOXYGEN_"))
	}
}

func TestMacroStripper_MustApplyPanics(t *testing.T) {
	m := newDefaultStripper(t)
	assert.Equal(t, Ellipsis, m.MustApply("DOXYGEN_ELLIPSIS(x)"))
	assert.Panics(t, func() { m.MustApply("DOXYGEN_ELLIPSIS(x") })
}

func TestMacroStripper_CustomTable(t *testing.T) {
	m, err := NewMacroStripper([]MacroRule{{Marker: "HIDE", Replacement: ""}, {Marker: "SKIP", Replacement: "..."}})
	require.NoError(t, err)

	got, err := m.Apply("HIDE(a) b SKIP(c(d)) DOXYGEN_IGNORE(e)")
	require.NoError(t, err)
	assert.Equal(t, " b ... DOXYGEN_IGNORE(e)", got)
}

func TestNewMacroStripper_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rules []MacroRule
	}{
		{"empty table", nil},
		{"empty marker", []MacroRule{{Marker: ""}}},
		{"marker with paren", []MacroRule{{Marker: "A("}}},
		{"duplicate marker", []MacroRule{{Marker: "A"}, {Marker: "A"}}},
		{"replacement too long", []MacroRule{{Marker: "A", Replacement: "abc"}}},
		{"replacement contains marker", []MacroRule{{Marker: "LONGMARK", Replacement: "B"}, {Marker: "B"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMacroStripper(tt.rules)
			require.Error(t, err)
			assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
		})
	}
}

func TestMacroStripper_TracesReplacements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m, err := NewMacroStripper(DefaultMacroRules(), WithLogger(logger))
	require.NoError(t, err)

	_, err = m.Apply("DOXYGEN_IGNORE(a) DOXYGEN_ELLIPSIS(b)")
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "Replacing marker call"))
	assert.Contains(t, out, "marker=DOXYGEN_IGNORE")
	assert.Contains(t, out, "marker=DOXYGEN_ELLIPSIS")
}
