// Package inject writes composed text into editable surfaces. Surfaces
// come in three shapes: a directly editable region holding paragraphs, a
// composite widget wrapping an inner editable, and a plain value input.
package inject

import (
	"strings"

	"golang.org/x/net/html"

	"requote/dom"
	"requote/extract"
)

// Events fired after an injection so the host framework observes the
// change.
const (
	EventInput  = "input"
	EventChange = "change"
)

// Notifier receives the synthetic notifications an injection produces:
// change events and the final caret position.
type Notifier interface {
	Notify(event string, target *html.Node)
	SetCaret(b dom.Boundary)
}

// Surface is one editable region in whichever shape the host uses.
type Surface interface {
	// Structured reports whether content is paragraph-based rather
	// than a single plain value.
	Structured() bool
	// Apply writes the text into the surface, firing notifications
	// through n when the write path itself produces none. Returns
	// false when nothing writable could be reached.
	Apply(text string, n Notifier) bool
	// Value reads the surface's current text.
	Value() string
	// FocusTarget is the node the caret belongs in after injection.
	FocusTarget() *html.Node
}

// Detect inspects an element once and returns the matching surface
// variant, or nil when el cannot hold text at all.
func Detect(el *html.Node) Surface {
	if el == nil || el.Type != html.ElementNode {
		return nil
	}
	if editable(el) {
		return &editableRegion{el: el}
	}
	switch el.Data {
	case "textarea", "input":
		return &valueInput{el: el}
	}
	return &compositeWidget{el: el}
}

// Inject writes text into the element's surface and places the caret at
// the end of content. Never panics; returns false when no writable
// surface is found.
func Inject(el *html.Node, text string, n Notifier) bool {
	s := Detect(el)
	if s == nil {
		return false
	}
	if !s.Apply(text, n) {
		return false
	}
	placeCaret(s.FocusTarget(), n)
	return true
}

func editable(el *html.Node) bool {
	v, has := hasAttr(el, "contenteditable")
	return has && (v == "" || v == "true")
}

func hasAttr(el *html.Node, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// placeCaret collapses the selection to the end of content: inside the
// last child element when one exists, otherwise at the end of the whole
// region.
func placeCaret(el *html.Node, n Notifier) {
	if el == nil || n == nil {
		return
	}
	target := el
	for c := el.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			target = c
			break
		}
	}
	n.SetCaret(dom.Boundary{Node: target, Offset: dom.ChildCount(target)})
}

func notify(n Notifier, target *html.Node) {
	if n == nil {
		return
	}
	n.Notify(EventInput, target)
	n.Notify(EventChange, target)
}

// editableRegion is a contenteditable element holding paragraph units.
type editableRegion struct {
	el *html.Node
}

func (r *editableRegion) Structured() bool        { return true }
func (r *editableRegion) FocusTarget() *html.Node { return r.el }

// Apply maps each line of text to a paragraph, an empty line to an
// empty-paragraph placeholder so vertical spacing survives, and swaps
// the region's children in one replacement.
func (r *editableRegion) Apply(text string, n Notifier) bool {
	for r.el.FirstChild != nil {
		r.el.RemoveChild(r.el.FirstChild)
	}
	for _, line := range strings.Split(text, "\n") {
		p := dom.NewElement("p")
		if line == "" {
			p.AppendChild(dom.NewElement("br"))
		} else {
			p.AppendChild(dom.NewText(line))
		}
		r.el.AppendChild(p)
	}
	// Structural replacement produces no notifications of its own.
	notify(n, r.el)
	return true
}

func (r *editableRegion) Value() string {
	return strings.TrimRight(extract.BlockText(r.el), "\n")
}

// compositeWidget is a custom editing control wrapping an inner
// editable region, possibly behind an encapsulated subtree boundary.
type compositeWidget struct {
	el *html.Node
}

func (w *compositeWidget) Structured() bool { return w.inner() != nil }

func (w *compositeWidget) inner() Surface {
	in := dom.First(w.el, `[contenteditable], textarea, input`)
	if in == nil || in == w.el {
		return nil
	}
	return Detect(in)
}

func (w *compositeWidget) Apply(text string, n Notifier) bool {
	if in := w.inner(); in != nil {
		return in.Apply(text, n)
	}
	// No inner region discoverable: fall back to a direct value
	// assignment on the widget itself.
	dom.SetAttr(w.el, "value", text)
	notify(n, w.el)
	return true
}

func (w *compositeWidget) Value() string {
	if in := w.inner(); in != nil {
		return in.Value()
	}
	return dom.Attr(w.el, "value")
}

func (w *compositeWidget) FocusTarget() *html.Node {
	if in := w.inner(); in != nil {
		return in.FocusTarget()
	}
	return w.el
}

// valueInput is a plain single-value input control.
type valueInput struct {
	el *html.Node
}

func (v *valueInput) Structured() bool        { return false }
func (v *valueInput) FocusTarget() *html.Node { return v.el }

func (v *valueInput) Apply(text string, n Notifier) bool {
	dom.SetAttr(v.el, "value", text)
	notify(n, v.el)
	return true
}

func (v *valueInput) Value() string {
	return dom.Attr(v.el, "value")
}
