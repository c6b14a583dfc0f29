// Package static holds the web UI assets embedded into the binary.
package static

import "embed"

// FS contains the page templates under templates/ and style.css.
//
//go:embed templates/*.html style.css
var FS embed.FS

// StyleCSS is the stylesheet served at /static/style.css.
//
//go:embed style.css
var StyleCSS []byte
