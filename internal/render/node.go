// Package render builds and prints the UI tree. Every string that reaches the
// tree goes through Text or an attribute value; there is no way to inject markup.
package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attrs is an ordered attribute list.
type Attrs []html.Attribute

// A builds Attrs from name/value pairs. A trailing name without a value is dropped.
func A(pairs ...string) Attrs {
	attrs := make(Attrs, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = append(attrs, html.Attribute{Key: pairs[i], Val: pairs[i+1]})
	}
	return attrs
}

// El creates an element node. Nil children are skipped so optional parts can
// be written inline with If.
func El(tag string, attrs Attrs, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     append([]html.Attribute(nil), attrs...),
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text creates a text node holding s literally.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// If returns n when cond holds, nil otherwise.
func If(cond bool, n func() *html.Node) *html.Node {
	if !cond {
		return nil
	}
	return n()
}

// Each maps items to nodes and wraps them in a fragment-like container.
func Each[T any](tag string, attrs Attrs, items []T, fn func(T) *html.Node) *html.Node {
	n := El(tag, attrs)
	for _, it := range items {
		if c := fn(it); c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// TextContent concatenates all text beneath n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// Attr returns the value of the named attribute on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Find returns the first node in n's subtree (n included) with the given id.
func Find(n *html.Node, id string) *html.Node {
	if n == nil {
		return nil
	}
	if v, ok := Attr(n, "id"); ok && v == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, id); found != nil {
			return found
		}
	}
	return nil
}
