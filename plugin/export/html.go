package export

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// previewRenderer turns Markdown exports into HTML. Raw HTML in the report is escaped.
var previewRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// RenderHTML renders a Markdown export (see Markdown) to HTML for preview.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := previewRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown preview")
	}
	return buf.String(), nil
}
