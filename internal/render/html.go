package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// HTML writes body as a complete document. The theme lands on the root
// element as data-theme so a stylesheet can pick it up.
func HTML(w io.Writer, body *html.Node, title, theme string) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(El("html", A("lang", "en", "data-theme", theme),
		El("head", nil,
			El("meta", A("charset", "utf-8")),
			El("title", nil, Text(title)),
		),
		El("body", nil, body),
	))
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	return nil
}
