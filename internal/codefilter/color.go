package codefilter

import "regexp"

// hexColorSpan matches a highlighted 0xRRGGBB[AA] literal carrying a color
// literal suffix (_rgb, _rgba, _srgb, _srgbaf, ...).
var hexColorSpan = regexp.MustCompile(`<span class="mh">0x([0-9a-f]{6})([0-9a-f]{2})?(_s?rgba?f?)</span>`)

// ColorSwatches appends an inline swatch to every highlighted color literal.
// The alpha component is kept in the literal text but ignored for the swatch.
func ColorSwatches(html string) string {
	return hexColorSpan.ReplaceAllString(html,
		`<span class="mh">0x${1}${2}${3}<span class="m-code-color" style="background-color: #${1};"></span></span>`)
}

// ColorSwatchFilter adapts ColorSwatches to the filter chain interface.
type ColorSwatchFilter struct{}

func (ColorSwatchFilter) Name() string { return "color_swatches" }

func (ColorSwatchFilter) Apply(html string) (string, error) { return ColorSwatches(html), nil }
