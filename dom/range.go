package dom

import (
	"golang.org/x/net/html"
)

// Boundary is one end of a selection range: a node plus an offset.
// For text nodes the offset counts bytes into the text; for any other
// node it counts children.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range is a start/end boundary pair over a rendered tree. It is created
// by the host's selection machinery, read during extraction, and then
// discarded. The boundaries are never mutated.
type Range struct {
	Start Boundary
	End   Boundary
}

// NodeRange returns a range spanning the entire contents of n.
func NodeRange(n *html.Node) Range {
	end := ChildCount(n)
	if n.Type == html.TextNode {
		end = len(n.Data)
	}
	return Range{
		Start: Boundary{Node: n, Offset: 0},
		End:   Boundary{Node: n, Offset: end},
	}
}

// CommonAncestor returns the deepest node containing both boundaries,
// or nil when the boundaries belong to different trees.
func (r Range) CommonAncestor() *html.Node {
	seen := make(map[*html.Node]bool)
	for n := r.Start.Node; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := r.End.Node; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// Compare orders two boundary points in document order: -1 when a
// precedes b, 0 when equal, +1 when a follows b.
func Compare(a, b Boundary) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}

	chainA := Ancestors(a.Node)
	chainB := Ancestors(b.Node)
	depth := make(map[*html.Node]int, len(chainA))
	for i, n := range chainA {
		depth[n] = i
	}
	var common *html.Node
	commonB := -1
	for i, n := range chainB {
		if _, ok := depth[n]; ok {
			common = n
			commonB = i
			break
		}
	}
	if common == nil {
		return 0 // disjoint trees; callers never compare across documents
	}

	// Reduce each point to an offset within the common ancestor.
	offA := offsetWithin(common, chainA, depth[common], a)
	offB := offsetWithin(common, chainB, commonB, b)
	switch {
	case offA < offB:
		return -1
	case offA > offB:
		return 1
	}
	// Same child slot: a point at (ancestor, k) sits just before child k,
	// so the shallower point precedes the one inside the child.
	switch {
	case depth[common] < commonB:
		return -1
	case depth[common] > commonB:
		return 1
	}
	return 0
}

// offsetWithin maps a boundary to a child offset directly under ancestor.
// chain is the boundary node's ancestor chain, ancestorIdx its position.
func offsetWithin(ancestor *html.Node, chain []*html.Node, ancestorIdx int, b Boundary) int {
	if ancestorIdx == 0 {
		return b.Offset
	}
	// chain[ancestorIdx-1] is the child of ancestor on the path to b.
	return ChildIndex(chain[ancestorIdx-1])
}

// nodeStart and nodeEnd bracket a whole node as boundary points in its
// parent.
func nodeStart(n *html.Node) Boundary {
	return Boundary{Node: n.Parent, Offset: ChildIndex(n)}
}

func nodeEnd(n *html.Node) Boundary {
	return Boundary{Node: n.Parent, Offset: ChildIndex(n) + 1}
}

// Intersects reports whether any part of n lies within r. A node with no
// parent (the root) intersects everything contained in it.
func (r Range) Intersects(n *html.Node) bool {
	if n == nil {
		return false
	}
	if n.Parent == nil {
		return true
	}
	return Compare(nodeStart(n), r.End) < 0 && Compare(nodeEnd(n), r.Start) > 0
}

// ContainsNode reports whether n lies entirely within r.
func (r Range) ContainsNode(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	return Compare(nodeStart(n), r.Start) >= 0 && Compare(nodeEnd(n), r.End) <= 0
}

// Text returns the plain visual text covered by the range.
func (r Range) Text() string {
	return TextContent(r.CloneContents())
}

// CloneContents copies the nodes covered by the range into a fresh
// detached fragment. Nodes only partially covered are partially cloned:
// text nodes are sliced at the boundary offsets, elements recursed into.
// The original tree is never modified.
func (r Range) CloneContents() *html.Node {
	frag := NewFragment()
	ca := r.CommonAncestor()
	if ca == nil {
		return frag
	}
	if ca.Type == html.TextNode {
		// Both boundaries inside one text node.
		start, end := clampText(ca.Data, r.Start.Offset), clampText(ca.Data, r.End.Offset)
		if start < end {
			frag.AppendChild(NewText(ca.Data[start:end]))
		}
		return frag
	}
	for c := ca.FirstChild; c != nil; c = c.NextSibling {
		if cloned := r.cloneCovered(c); cloned != nil {
			frag.AppendChild(cloned)
		}
	}
	return frag
}

// cloneCovered clones the portion of n covered by the range, or returns
// nil when n lies entirely outside it.
func (r Range) cloneCovered(n *html.Node) *html.Node {
	if r.ContainsNode(n) {
		return Clone(n)
	}
	if !r.Intersects(n) {
		return nil
	}
	if n.Type == html.TextNode {
		return r.cloneTextSlice(n)
	}
	// Partially covered element: shallow-clone and recurse.
	partial := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cloned := r.cloneCovered(c); cloned != nil {
			partial.AppendChild(cloned)
		}
	}
	return partial
}

func (r Range) cloneTextSlice(n *html.Node) *html.Node {
	start, end := 0, len(n.Data)
	if r.Start.Node == n {
		start = clampText(n.Data, r.Start.Offset)
	}
	if r.End.Node == n {
		end = clampText(n.Data, r.End.Offset)
	}
	if start >= end {
		return nil
	}
	return NewText(n.Data[start:end])
}

func clampText(s string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(s) {
		return len(s)
	}
	return off
}
