package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"div": true, "p": true, "section": true, "header": true, "nav": true,
	"form": true, "ul": true, "ol": true, "main": true, "footer": true,
	"dialog": true, "fieldset": true,
}

var headingPrefix = map[string]string{"h1": "# ", "h2": "## ", "h3": "### "}

// Terminal writes n as plain text. Control characters in text are dropped so
// server data cannot drive the terminal; elements marked hidden are skipped.
func Terminal(w io.Writer, n *html.Node) error {
	tw := &textWriter{atLineStart: true}
	tw.walk(n)
	tw.newline()
	if _, err := io.WriteString(w, tw.b.String()); err != nil {
		return fmt.Errorf("writing text view: %w", err)
	}
	return nil
}

type textWriter struct {
	b            strings.Builder
	atLineStart  bool
	endsInSpace  bool
	pendingSpace bool
}

func (t *textWriter) newline() {
	if !t.atLineStart {
		t.b.WriteByte('\n')
		t.atLineStart = true
	}
	t.pendingSpace = false
}

func (t *textWriter) space() {
	if !t.atLineStart && !t.endsInSpace {
		t.pendingSpace = true
	}
}

func (t *textWriter) write(s string) {
	if s == "" {
		return
	}
	if t.pendingSpace {
		t.b.WriteByte(' ')
		t.pendingSpace = false
	}
	t.b.WriteString(s)
	t.atLineStart = false
	t.endsInSpace = strings.HasSuffix(s, " ")
}

func (t *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walk(c)
	}
}

func (t *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		t.write(stripControl(n.Data))
		return
	case html.DocumentNode:
		t.children(n)
		return
	case html.ElementNode:
	default:
		return
	}

	if _, hidden := Attr(n, "hidden"); hidden {
		return
	}

	switch tag := n.Data; {
	case tag == "br":
		t.newline()
	case tag == "li":
		t.newline()
		t.write("- ")
		t.children(n)
		t.newline()
	case headingPrefix[tag] != "":
		t.newline()
		t.write(headingPrefix[tag])
		t.children(n)
		t.newline()
	case blockTags[tag]:
		t.newline()
		t.children(n)
		t.newline()
	case tag == "input":
		t.space()
		t.write(inputText(n))
	case tag == "button":
		t.space()
		t.write("[")
		t.children(n)
		t.write("]")
	case tag == "head" || tag == "script" || tag == "style":
	default:
		t.space()
		t.children(n)
	}
}

func inputText(n *html.Node) string {
	label, _ := Attr(n, "aria-label")
	if label == "" {
		label, _ = Attr(n, "name")
	}
	value, _ := Attr(n, "value")
	if typ, _ := Attr(n, "type"); typ == "password" && value != "" {
		value = strings.Repeat("*", 8)
	}
	return "[" + stripControl(label) + ": " + stripControl(value) + "]"
}

// stripControl drops control characters and turns line breaks and tabs into spaces.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		}
		return r
	}, s)
}
