package serve

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/jllopis/ethos/pkg/errors"
)

// Persona bodies carry pipe tables, so GFM is on. Raw HTML stays
// escaped; document content is untrusted.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts a persona body to HTML.
func RenderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", errors.New(errors.CodeInternal, "render markdown", err)
	}
	return buf.String(), nil
}
