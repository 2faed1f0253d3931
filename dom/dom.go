// Package dom provides node and selection-range utilities over parsed HTML trees.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the named attribute, or "" if absent.
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

// SetAttr sets or replaces the named attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries the given class token.
func HasClass(n *html.Node, class string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// IsAtom reports whether n is an element with the given atom.
func IsAtom(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

// TextContent returns the concatenated text of n and its descendants,
// without any trimming or block separation.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return sb.String()
}

// Ancestors returns the chain from n up to the root, n first.
func Ancestors(n *html.Node) []*html.Node {
	var chain []*html.Node
	for ; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	return chain
}

// Closest walks from n up to the root and returns the first node for
// which match returns true, or nil.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for ; n != nil; n = n.Parent {
		if match(n) {
			return n
		}
	}
	return nil
}

// Detach removes n from its parent. Safe on detached nodes.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWithText swaps n for a plain text node carrying the given text.
// No-op when n has no parent.
func ReplaceWithText(n *html.Node, text string) {
	if n.Parent == nil {
		return
	}
	t := &html.Node{Type: html.TextNode, Data: text}
	n.Parent.InsertBefore(t, n)
	n.Parent.RemoveChild(n)
}

// NewFragment returns an empty detached container node. Children appended
// to it form a document-fragment equivalent.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// NewElement returns a detached element node with the given tag.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText returns a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Clone returns a deep copy of n, detached from any parent.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Walk visits n and its descendants in document order. Returning false
// from visit skips the node's children.
func Walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, visit)
	}
}

// ChildIndex returns the position of n among its parent's children,
// or -1 for a detached node.
func ChildIndex(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return -1
	}
	i := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return i
		}
		i++
	}
	return -1
}

// ChildCount returns the number of children of n.
func ChildCount(n *html.Node) int {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		i++
	}
	return i
}
