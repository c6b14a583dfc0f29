package display

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	md        = goldmark.New()
	htmlClean = bluemonday.UGCPolicy()
)

// HTML renders the view as sanitized HTML.
func HTML(v View) (string, error) {
	text, err := Markdown(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("converting %s to HTML: %w", v.Name, err)
	}
	return string(htmlClean.SanitizeBytes(buf.Bytes())), nil
}
