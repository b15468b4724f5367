package codefilter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
)

// Ellipsis is the single glyph DOXYGEN_ELLIPSIS calls collapse to.
const Ellipsis = "…"

// ErrUnmatchedParenthesis is matched by errors.Is when a marker call's
// argument list is never closed.
var ErrUnmatchedParenthesis = errors.New("unmatched parenthesis")

// MacroRule maps a marker token to the text that replaces each of its calls.
type MacroRule struct {
	Marker      string `yaml:"marker"`
	Replacement string `yaml:"replacement"`
}

// DefaultMacroRules returns the marker table used by the documented C++ sources.
func DefaultMacroRules() []MacroRule {
	return []MacroRule{
		{Marker: "DOXYGEN_ELLIPSIS", Replacement: Ellipsis},
		{Marker: "DOXYGEN_IGNORE", Replacement: ""},
	}
}

// MacroStripper replaces marker calls with their configured replacement.
// It is safe for concurrent use.
type MacroStripper struct {
	rules  []MacroRule
	logger *slog.Logger
}

// Option configures a MacroStripper.
type Option func(*MacroStripper)

// WithLogger emits one debug line per replaced call.
func WithLogger(l *slog.Logger) Option {
	return func(m *MacroStripper) { m.logger = l }
}

// NewMacroStripper validates rules and returns a stripper applying them in order.
//
// A replacement must be strictly shorter than the smallest call of its marker
// ("MARKER()") and must not contain any marker, so every replacement shrinks
// the snippet and stripping always terminates.
func NewMacroStripper(rules []MacroRule, opts ...Option) (*MacroStripper, error) {
	if len(rules) == 0 {
		return nil, derrors.ValidationFailed("macros", "at least one marker rule is required")
	}
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		field := fmt.Sprintf("macros[%d]", i)
		if r.Marker == "" {
			return nil, derrors.ValidationFailed(field, "marker must not be empty")
		}
		if strings.ContainsAny(r.Marker, "()") {
			return nil, derrors.ValidationFailed(field, "marker must not contain parentheses")
		}
		if _, dup := seen[r.Marker]; dup {
			return nil, derrors.ValidationFailed(field, "duplicate marker "+r.Marker)
		}
		seen[r.Marker] = struct{}{}
		if len(r.Replacement) >= len(r.Marker)+2 {
			return nil, derrors.ValidationFailed(field, "replacement must be shorter than an empty "+r.Marker+"() call")
		}
	}
	for i, r := range rules {
		for _, other := range rules {
			if strings.Contains(r.Replacement, other.Marker) {
				return nil, derrors.ValidationFailed(fmt.Sprintf("macros[%d]", i), "replacement contains marker "+other.Marker)
			}
		}
	}

	m := &MacroStripper{rules: append([]MacroRule(nil), rules...)}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Rules returns a copy of the marker table.
func (m *MacroStripper) Rules() []MacroRule {
	return append([]MacroRule(nil), m.rules...)
}

// Name identifies the filter in per-language chains.
func (m *MacroStripper) Name() string { return "strip_doc_macros" }

// Apply removes every marker call from snippet. Whitespace may separate a
// marker from its '('. A marker without an argument list, or whose argument
// list never closes, fails the whole snippet with ErrUnmatchedParenthesis.
func (m *MacroStripper) Apply(snippet string) (string, error) {
	out := snippet
	for {
		changed := false
		for _, r := range m.rules {
			for {
				start, open, found := findCall(out, r.Marker)
				if !found {
					break
				}
				end := -1
				if open >= 0 {
					end = matchingParen(out, open+1)
				}
				if end < 0 {
					return "", derrors.UnmatchedParenthesis(r.Marker, snippet, ErrUnmatchedParenthesis)
				}
				if m.logger != nil {
					m.logger.Debug("Replacing marker call",
						logfields.Marker(r.Marker),
						logfields.Offset(start),
						slog.String("call", out[start:end+1]))
				}
				out = out[:start] + r.Replacement + out[end+1:]
				changed = true
			}
		}
		if !changed {
			return out, nil
		}
	}
}

// MustApply is Apply for snippets that are known to be well formed; an
// unmatched parenthesis panics.
func (m *MacroStripper) MustApply(snippet string) string {
	out, err := m.Apply(snippet)
	if err != nil {
		panic(err)
	}
	return out
}

// findCall locates the first occurrence of marker in s that is not the prefix
// of a longer identifier. open is the index of the '(' following it after
// optional whitespace, or -1 when no argument list follows.
func findCall(s, marker string) (start, open int, found bool) {
	from := 0
	for {
		i := strings.Index(s[from:], marker)
		if i < 0 {
			return -1, -1, false
		}
		start = from + i
		after := start + len(marker)
		if after < len(s) && isIdentByte(s[after]) {
			from = start + 1
			continue
		}
		for after < len(s) && isSpace(s[after]) {
			after++
		}
		if after < len(s) && s[after] == '(' {
			return start, after, true
		}
		return start, -1, true
	}
}

// matchingParen returns the index of the ')' closing the '(' just before
// from, or -1 when the input ends first.
func matchingParen(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
