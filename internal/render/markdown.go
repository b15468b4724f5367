// Package render converts Markdown pages to HTML, running every code block
// through the configured pre-highlight filters, the highlighter and the
// post-highlight filters.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/codedoc/internal/highlight"
)

// CodeFilters runs the filter chains of one stage for a language.
// *filters.Set satisfies it.
type CodeFilters interface {
	Pre(lang, code string) (string, error)
	Post(lang, code string) (string, error)
}

// Markdown renders Markdown bodies to HTML fragments.
type Markdown struct {
	filters     CodeFilters
	highlighter highlight.Highlighter
	defaultLang string
}

// NewMarkdown returns a renderer. defaultLang applies to indented code
// blocks and fences without an info string.
func NewMarkdown(f CodeFilters, h highlight.Highlighter, defaultLang string) *Markdown {
	return &Markdown{filters: f, highlighter: h, defaultLang: defaultLang}
}

// Render converts body. pageLang, when set, overrides the default language
// for this page. The first failing code block aborts the page.
func (m *Markdown) Render(body []byte, pageLang string) ([]byte, error) {
	lang := m.defaultLang
	if pageLang != "" {
		lang = pageLang
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{m: m, defaultLang: lang}, 100),
			),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snippet runs one snippet through pre filters, highlighting and post filters.
func (m *Markdown) Snippet(lang, code string) (string, error) {
	filtered, err := m.filters.Pre(lang, code)
	if err != nil {
		return "", err
	}
	highlighted, err := m.highlighter.Highlight(lang, filtered)
	if err != nil {
		return "", err
	}
	return m.filters.Post(lang, highlighted)
}

type codeBlockRenderer struct {
	m           *Markdown
	defaultLang string
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	lang := r.defaultLang
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		if l := strings.TrimSpace(string(fenced.Language(source))); l != "" {
			lang = l
		}
	}

	var code strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	out, err := r.m.Snippet(lang, code.String())
	if err != nil {
		return ast.WalkStop, err
	}

	_, _ = w.WriteString(`<pre class="m-code" data-language="`)
	_, _ = w.WriteString(html.EscapeString(lang))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(out)
	_, _ = w.WriteString("</pre>\n")
	return ast.WalkSkipChildren, nil
}
