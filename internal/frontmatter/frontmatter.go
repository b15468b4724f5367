// Package frontmatter splits Markdown pages into YAML frontmatter and body
// and decodes the page metadata codedoc understands.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta is the page metadata read from frontmatter.
type Meta struct {
	Title    string   `yaml:"title"`
	Language string   `yaml:"language"` // default language for untagged code blocks on this page
	Keywords []string `yaml:"keywords"` // extra search terms
	Weight   int      `yaml:"weight"`
	Draft    bool     `yaml:"draft"`
}

// Document is a parsed Markdown page.
type Document struct {
	Meta        Meta
	Frontmatter []byte
	Body        []byte
	Fingerprint string
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content, decodes Meta and computes the page fingerprint.
// The fingerprint covers frontmatter and body, so any edit changes it.
func Parse(content []byte) (*Document, error) {
	fm, body, _, err := Split(content)
	if err != nil {
		return nil, err
	}
	doc := &Document{Frontmatter: fm, Body: body}
	if len(bytes.TrimSpace(fm)) > 0 {
		if err := yaml.Unmarshal(fm, &doc.Meta); err != nil {
			return nil, err
		}
	}
	doc.Fingerprint = mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body))
	return doc, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
