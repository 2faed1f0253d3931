package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// parseBody parses an HTML snippet and returns the body element.
func parseBody(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := First(doc, "body")
	if body == nil {
		t.Fatal("no body element")
	}
	return body
}

func firstText(t *testing.T, n *html.Node) *html.Node {
	t.Helper()
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if found == nil && c.Type == html.TextNode {
			found = c
		}
		return found == nil
	})
	if found == nil {
		t.Fatal("no text node")
	}
	return found
}

func TestCompareOrdering(t *testing.T) {
	body := parseBody(t, `<p id="a">alpha</p><p id="b">beta</p>`)
	a := First(body, "#a")
	b := First(body, "#b")
	at := firstText(t, a)
	bt := firstText(t, b)

	tests := []struct {
		name string
		p, q Boundary
		want int
	}{
		{"same node ordered offsets", Boundary{at, 0}, Boundary{at, 3}, -1},
		{"same node equal", Boundary{at, 2}, Boundary{at, 2}, 0},
		{"across siblings", Boundary{at, 5}, Boundary{bt, 0}, -1},
		{"reverse across siblings", Boundary{bt, 1}, Boundary{at, 1}, 1},
		{"element before inner text", Boundary{body, 0}, Boundary{at, 0}, -1},
		{"inner text after element start", Boundary{at, 0}, Boundary{body, 0}, 1},
	}
	for _, tt := range tests {
		if got := Compare(tt.p, tt.q); got != tt.want {
			t.Errorf("%s: Compare = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCommonAncestor(t *testing.T) {
	body := parseBody(t, `<div><p id="a">one</p><p id="b">two</p></div>`)
	a := firstText(t, First(body, "#a"))
	b := firstText(t, First(body, "#b"))
	r := Range{Start: Boundary{a, 0}, End: Boundary{b, 3}}
	ca := r.CommonAncestor()
	if !IsElement(ca, "div") {
		t.Errorf("common ancestor = %v, want div", ca)
	}
}

func TestCloneContentsWholeParagraphs(t *testing.T) {
	body := parseBody(t, `<p>one</p><p>two</p>`)
	r := NodeRange(body)
	frag := r.CloneContents()
	if got := TextContent(frag); got != "onetwo" {
		t.Errorf("TextContent = %q, want %q", got, "onetwo")
	}
	if n := ChildCount(frag); n != 2 {
		t.Errorf("fragment children = %d, want 2", n)
	}
}

func TestCloneContentsTextSlice(t *testing.T) {
	body := parseBody(t, `<p>hello world</p>`)
	txt := firstText(t, body)
	r := Range{Start: Boundary{txt, 6}, End: Boundary{txt, 11}}
	frag := r.CloneContents()
	if got := TextContent(frag); got != "world" {
		t.Errorf("TextContent = %q, want %q", got, "world")
	}
}

func TestCloneContentsPartialElements(t *testing.T) {
	// Selection starts mid-way through the first paragraph and ends
	// mid-way through the second: both elements are partially cloned.
	body := parseBody(t, `<p id="a">alpha</p><p id="b">beta</p>`)
	at := firstText(t, First(body, "#a"))
	bt := firstText(t, First(body, "#b"))
	r := Range{Start: Boundary{at, 2}, End: Boundary{bt, 2}}
	frag := r.CloneContents()
	if got := TextContent(frag); got != "phabe" {
		t.Errorf("TextContent = %q, want %q", got, "phabe")
	}
	// The partial clones keep their element wrappers.
	if n := ChildCount(frag); n != 2 {
		t.Errorf("fragment children = %d, want 2", n)
	}
	if !IsElement(frag.FirstChild, "p") {
		t.Errorf("first child = %v, want p element", frag.FirstChild)
	}
}

func TestCloneContentsLeavesOriginalIntact(t *testing.T) {
	body := parseBody(t, `<p>hello</p>`)
	before := TextContent(body)
	r := NodeRange(body)
	frag := r.CloneContents()
	frag.FirstChild.FirstChild.Data = "mutated"
	if got := TextContent(body); got != before {
		t.Errorf("original changed to %q", got)
	}
}

func TestIntersects(t *testing.T) {
	body := parseBody(t, `<p id="a">alpha</p><p id="b">beta</p><p id="c">gamma</p>`)
	at := firstText(t, First(body, "#a"))
	bt := firstText(t, First(body, "#b"))
	r := Range{Start: Boundary{at, 1}, End: Boundary{bt, 2}}

	if !r.Intersects(First(body, "#a")) {
		t.Error("range should intersect #a")
	}
	if !r.Intersects(First(body, "#b")) {
		t.Error("range should intersect #b")
	}
	if r.Intersects(First(body, "#c")) {
		t.Error("range should not intersect #c")
	}
	if r.ContainsNode(First(body, "#a")) {
		t.Error("#a is only partially covered")
	}
}

func TestRangeText(t *testing.T) {
	body := parseBody(t, `<p>The sky is blue</p>`)
	txt := firstText(t, body)
	r := Range{Start: Boundary{txt, 4}, End: Boundary{txt, 7}}
	if got := r.Text(); got != "sky" {
		t.Errorf("Text = %q, want %q", got, "sky")
	}
}
