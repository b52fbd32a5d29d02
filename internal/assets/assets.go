// Package assets bundles the editor page and the stylesheets injected into
// exported artifacts.
package assets

import (
	_ "embed"
)

// Page is the editor template. It carries the sentinel strings replaced by
// the render package.
//
//go:embed mindmap.html
var Page string

// IndexCSS is the mind-elixir style injected for PNG export and offline artifacts.
//
//go:embed index.css
var IndexCSS string

//go:embed katex.css
var KatexCSS string
