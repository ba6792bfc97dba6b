package scrape

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Selector reports whether an element node matches.
type Selector func(n *html.Node) bool

// Tag matches elements by tag name.
func Tag(name string) Selector {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == name }
}

// ID matches elements with the given id attribute.
func ID(id string) Selector {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && Attr(n, "id") == id }
}

// Class matches elements whose class list contains the class token.
func Class(class string) Selector {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(Attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// HasAttr matches elements carrying the attribute, whatever its value.
func HasAttr(key string) Selector {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key {
				return true
			}
		}
		return false
	}
}

// AttrEquals matches elements whose attribute equals value.
func AttrEquals(key, value string) Selector {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && Attr(n, key) == value }
}

// AttrContains matches elements whose attribute contains the substring.
func AttrContains(key, sub string) Selector {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.Contains(Attr(n, key), sub)
	}
}

// All matches when every selector matches.
func All(sels ...Selector) Selector {
	return func(n *html.Node) bool {
		for _, s := range sels {
			if !s(n) {
				return false
			}
		}
		return true
	}
}

// Attr returns the attribute value or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Find returns the first descendant of root (depth first) matching sel.
func Find(root *html.Node, sel Selector) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if sel(c) {
			return c
		}
		if found := Find(c, sel); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of root matching sel in document order.
func FindAll(root *html.Node, sel Selector) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if sel(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// FindPath descends through one match per selector, like a/b/c in XPath.
func FindPath(root *html.Node, path ...Selector) *html.Node {
	n := root
	for _, sel := range path {
		if n = Find(n, sel); n == nil {
			return nil
		}
	}
	return n
}

// Children returns the direct element children of n matching sel.
func Children(n *html.Node, sel Selector) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if sel(c) {
			out = append(out, c)
		}
	}
	return out
}

// NextElement returns the next sibling element of n, skipping text nodes.
func NextElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// CleanText returns the text content with whitespace runs collapsed.
func CleanText(n *html.Node) string {
	return strings.Join(strings.Fields(Text(n)), " ")
}

// InnerHTML renders the children of n back to markup.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(buf.String())
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}
