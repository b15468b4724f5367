// Package highlight turns code snippets into class-annotated HTML.
//
// Output uses Pygments-compatible short class names (mh for hexadecimal
// literals, k for keywords, ...) so stylesheets written for Pygments markup
// and the post-highlight code filters work unchanged.
package highlight

import (
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
)

// Highlighter renders code in a language to HTML without a surrounding <pre>.
type Highlighter interface {
	Highlight(language, code string) (string, error)
}

// colorSuffix matches the user-defined literal suffixes of color literals.
var colorSuffix = regexp.MustCompile(`^_s?rgba?f?$`)

// Chroma highlights with the chroma lexers.
type Chroma struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewChroma returns a Chroma highlighter emitting class attributes only.
func NewChroma() *Chroma {
	return &Chroma{
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     styles.Fallback,
	}
}

// Highlight tokenises code with the lexer registered for language. Unknown
// languages are rendered as escaped plain text.
func (c *Chroma) Highlight(language, code string) (string, error) {
	lexer := lexerFor(language)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", derrors.HighlightFailed(language, err)
	}
	tokens := mergeColorLiterals(it.Tokens())

	var sb strings.Builder
	if err := c.formatter.Format(&sb, c.style, chroma.Literator(tokens...)); err != nil {
		return "", derrors.HighlightFailed(language, err)
	}
	return sb.String(), nil
}

func lexerFor(language string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// mergeColorLiterals folds a color literal suffix (0xff3366_rgbf) into the
// preceding hex literal token. The C++ lexer splits it into a number and an
// identifier.
func mergeColorLiterals(tokens []chroma.Token) []chroma.Token {
	out := make([]chroma.Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type == chroma.LiteralNumberHex && i+1 < len(tokens) {
			next := tokens[i+1]
			if next.Type.InCategory(chroma.Name) && colorSuffix.MatchString(next.Value) {
				t.Value += next.Value
				i++
			}
		}
		out = append(out, t)
	}
	return out
}

// Plain escapes code without any token markup.
type Plain struct{}

func (Plain) Highlight(_ string, code string) (string, error) {
	return html.EscapeString(code), nil
}
