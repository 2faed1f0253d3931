// Package latex recovers LaTeX source notation from rendered math regions.
// Rendering libraries replace the source with visual markup; this package
// walks the rendered shapes back to the notation that produced them.
package latex

import (
	"strings"

	"golang.org/x/net/html"

	"requote/dom"
)

// Annotation is the recovered source for one math region.
type Annotation struct {
	Source  string
	Display bool // block-level (display) math rather than inline
}

// Wrapped returns the source in the conventional delimiters: $...$ for
// inline math, $$...$$ for display math.
func (a Annotation) Wrapped() string {
	if a.Display {
		return "$$" + a.Source + "$$"
	}
	return "$" + a.Source + "$"
}

// Attributes that carry source notation directly on a wrapper element.
var sourceAttrs = []string{"data-latex", "data-tex", "alttext"}

const texEncoding = "application/x-tex"

// mathMarker matches anything that indicates rendered math, across the
// three supported rendering families.
const mathMarker = `.katex, .katex-mathml, .katex-html, math, annotation, ` +
	`script[type^="math/tex"], .MathJax, .MathJax_Display, .mjx-chtml, ` +
	`[data-latex], [data-tex]`

// candidateSelector matches nodes a substitution pass may resolve.
// Document order puts wrappers before the inline nodes they contain.
const candidateSelector = `[data-latex], [data-tex], [alttext], ` +
	`.katex-display, .katex, math, script[type^="math/tex"]`

// artifactSelector matches duplicate rendering internals that must not
// contribute text once their source has been emitted.
const artifactSelector = `.katex-html, .katex-mathml, annotation-xml, ` +
	`.MathJax, .MathJax_Display, .MathJax_Preview, .MJX_Assistive_MathML, .mjx-chtml`

// renderedOnly matches rendering output that carries no source of its
// own; finding one without a resolvable wrapper means the clone was
// clipped at a range boundary.
const renderedOnly = `.katex-html, .MathJax, .MathJax_Display, .mjx-chtml`

// ContainsMath reports whether any rendered-math marker appears under n.
func ContainsMath(n *html.Node) bool {
	return dom.First(n, mathMarker) != nil
}

// Resolver recovers source notation for math nodes inside a cloned
// fragment, cross-referencing the original (un-cloned) tree for renders
// the clone clipped.
type Resolver struct {
	root *html.Node // original tree; may be nil
}

// NewResolver returns a resolver backed by the original rendered tree.
func NewResolver(root *html.Node) *Resolver {
	return &Resolver{root: root}
}

// FromBoundary checks whether the selection's common ancestor in the
// original tree sits inside a node carrying a source-notation attribute,
// and if so returns that notation directly. This covers selections made
// entirely inside a single rendered equation, where cloning would have
// truncated the internal structure.
func (r *Resolver) FromBoundary(rng dom.Range) *Annotation {
	ca := rng.CommonAncestor()
	wrapper := dom.Closest(ca, func(n *html.Node) bool {
		_, ok := attrSource(n)
		return ok
	})
	if wrapper == nil {
		return nil
	}
	src, _ := attrSource(wrapper)
	return &Annotation{Source: src, Display: isDisplay(wrapper)}
}

// Substitute replaces every resolvable math node inside frag with a text
// node holding its wrapped source notation, re-associating clipped
// renders against the original tree first, and strips leftover rendering
// artifacts. Reports whether anything was substituted.
func (r *Resolver) Substitute(frag *html.Node, rng dom.Range) bool {
	r.reassociate(frag, rng)

	substituted := false
	for _, n := range dom.All(frag, candidateSelector) {
		if !attached(frag, n) {
			continue // an enclosing wrapper was already substituted
		}
		ann := resolveNode(n)
		if ann == nil {
			continue
		}
		if dom.IsElement(n, "script") {
			removeRenderedSiblings(n)
		}
		// If the resolved node sits inside a rendering-internal wrapper
		// (a clipped clone keeping only the mathml half, say), replace
		// the wrapper itself so the artifact strip below cannot take
		// the substituted text with it.
		dom.ReplaceWithText(liftToArtifact(frag, n), ann.Wrapped())
		substituted = true
	}

	for _, n := range dom.All(frag, artifactSelector) {
		if attached(frag, n) {
			dom.Detach(n)
		}
	}
	return substituted
}

// reassociate pairs orphaned rendered nodes in the clone with
// source-bearing nodes from the original tree that intersect the
// selection, wrapping each orphan so the substitution pass resolves it.
func (r *Resolver) reassociate(frag *html.Node, rng dom.Range) {
	orphans := orphanedRenders(frag)
	if len(orphans) == 0 || r.root == nil {
		return
	}

	var sources []*Annotation
	for _, n := range dom.All(r.root, candidateSelector) {
		if !rng.Intersects(n) {
			continue
		}
		if ann := resolveNode(n); ann != nil {
			sources = append(sources, ann)
		}
	}

	for i, orphan := range orphans {
		if i >= len(sources) {
			break
		}
		wrap := dom.NewElement("span")
		dom.SetAttr(wrap, "data-latex", sources[i].Source)
		if sources[i].Display {
			dom.SetAttr(wrap, "data-display", "true")
		}
		orphan.Parent.InsertBefore(wrap, orphan)
		orphan.Parent.RemoveChild(orphan)
		wrap.AppendChild(orphan)
	}
}

// orphanedRenders finds rendered-output nodes in frag with no resolvable
// source anywhere above or below them.
func orphanedRenders(frag *html.Node) []*html.Node {
	var orphans []*html.Node
	for _, n := range dom.All(frag, renderedOnly) {
		if resolveNode(n) != nil {
			continue
		}
		enclosed := dom.Closest(n, func(a *html.Node) bool {
			return resolveNode(a) != nil
		})
		if enclosed == nil && !sourceNearby(n) {
			orphans = append(orphans, n)
		}
	}
	return orphans
}

// sourceNearby reports whether a sibling of the rendered node still
// carries recoverable source: a MathJax source script, or a clipped
// katex-mathml half with its annotation intact.
func sourceNearby(n *html.Node) bool {
	if n.Parent == nil {
		return false
	}
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s == n || s.Type != html.ElementNode {
			continue
		}
		if resolveNode(s) != nil {
			return true
		}
	}
	return false
}

// liftToArtifact returns the outermost rendering-internal ancestor of n
// below root, or n itself when there is none.
func liftToArtifact(root, n *html.Node) *html.Node {
	target := n
	for a := n.Parent; a != nil && a != root; a = a.Parent {
		if dom.Matches(a, artifactSelector) {
			target = a
		}
	}
	return target
}

// resolveNode extracts an annotation from one node, trying the families
// in order: wrapper attribute, annotation child, source script.
func resolveNode(n *html.Node) *Annotation {
	if src, ok := attrSource(n); ok {
		return &Annotation{Source: src, Display: isDisplay(n)}
	}
	if ann := dom.First(n, `annotation[encoding="`+texEncoding+`"]`); ann != nil {
		src := strings.TrimSpace(dom.TextContent(ann))
		if src != "" {
			return &Annotation{Source: src, Display: isDisplay(n)}
		}
	}
	if dom.IsElement(n, "script") {
		typ := dom.Attr(n, "type")
		if strings.HasPrefix(typ, "math/tex") {
			src := strings.TrimSpace(dom.TextContent(n))
			if src != "" {
				return &Annotation{Source: src, Display: strings.Contains(typ, "mode=display")}
			}
		}
	}
	return nil
}

// removeRenderedSiblings drops the rendered output and preview spans
// that precede a MathJax source script, so only the source survives.
func removeRenderedSiblings(script *html.Node) {
	if script.Parent == nil {
		return
	}
	var doomed []*html.Node
	for s := script.Parent.FirstChild; s != nil && s != script; s = s.NextSibling {
		if dom.HasClass(s, "MathJax") || dom.HasClass(s, "MathJax_Display") ||
			dom.HasClass(s, "MathJax_Preview") || dom.HasClass(s, "mjx-chtml") {
			doomed = append(doomed, s)
		}
	}
	for _, s := range doomed {
		dom.Detach(s)
	}
}

func attrSource(n *html.Node) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, key := range sourceAttrs {
		if v := dom.Attr(n, key); v != "" {
			return v, true
		}
	}
	return "", false
}

// isDisplay reports whether a wrapper renders as block-level math.
func isDisplay(n *html.Node) bool {
	if dom.HasClass(n, "katex-display") || dom.HasClass(n, "MathJax_Display") {
		return true
	}
	if dom.Attr(n, "display") == "block" || dom.Attr(n, "data-display") == "true" {
		return true
	}
	if dom.IsElement(n, "script") {
		return strings.Contains(dom.Attr(n, "type"), "mode=display")
	}
	return false
}

// attached reports whether n still hangs off root, walking parents.
func attached(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
