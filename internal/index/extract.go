package index

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractEntries builds the search entries of a rendered page: one entry for
// the page itself and one per h1-h3 heading carrying an id.
func ExtractEntries(pagePath, title string, body []byte, keywords []string) ([]Entry, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	entries := []Entry{{
		Page:     pagePath,
		Title:    title,
		URL:      pagePath,
		Kind:     KindPage,
		Keywords: strings.Join(keywords, " "),
	}}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isSectionHeading(n.DataAtom) {
			if id := attr(n, "id"); id != "" {
				if text := strings.Join(strings.Fields(textContent(n)), " "); text != "" {
					entries = append(entries, Entry{
						Page:  pagePath,
						Title: text,
						URL:   pagePath + "#" + id,
						Kind:  KindSection,
					})
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return entries, nil
}

// FirstHeading returns the text of the first h1 in body, or "".
func FirstHeading(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.H1 {
			found = strings.Join(strings.Fields(textContent(n)), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

func isSectionHeading(a atom.Atom) bool {
	return a == atom.H1 || a == atom.H2 || a == atom.H3
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
