// Package codefilter implements the text filters applied to code snippets
// around syntax highlighting.
//
// MacroStripper runs before highlighting. It removes pseudo-macro calls that
// only exist to make documentation snippets compile, such as
// DOXYGEN_IGNORE(...) and DOXYGEN_ELLIPSIS(...), replacing each call including
// its full parenthesized argument list with a fixed string.
//
// ColorSwatches runs after highlighting. It finds hexadecimal color literals in
// the highlighter's markup and appends a small inline swatch element showing
// the color.
package codefilter
