package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"requote/dom"
)

func parseBody(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := dom.First(doc, "body")
	if body == nil {
		t.Fatal("no body element")
	}
	return body
}

func TestBlockText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"text node", `plain`, "plain"},
		{"paragraphs", `<p>one</p><p>two</p>`, "one\ntwo\n"},
		{"heading and paragraph", `<h2>Title</h2><p>body</p>`, "Title\nbody\n"},
		{"line break", `<p>a<br>b</p>`, "a\nb\n"},
		{"list items", `<ul><li>x</li><li>y</li></ul>`, "x\ny\n"},
		{"script skipped", `<p>a</p><script>var x;</script>`, "a\n"},
		{"style skipped", `<style>p{}</style><p>a</p>`, "a\n"},
		{"blockquote", `<blockquote><p>q</p></blockquote>`, "q\n"},
		{"nested divs single newline", `<div><div>a</div></div>`, "a\n"},
		{"inline spans no breaks", `<p><span>a</span><span>b</span></p>`, "ab\n"},
	}
	for _, tt := range tests {
		body := parseBody(t, tt.src)
		if got := BlockText(body); got != tt.want {
			t.Errorf("%s: BlockText = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBlockTextDelegatesTables(t *testing.T) {
	body := parseBody(t, `<p>before</p><table><tr><td>A</td><td>B</td></tr></table><p>after</p>`)
	got := BlockText(body)
	if !strings.Contains(got, "| A   | B   |") {
		t.Errorf("table not serialized as markdown: %q", got)
	}
	if !strings.Contains(got, "before\n") || !strings.Contains(got, "after\n") {
		t.Errorf("surrounding paragraphs lost: %q", got)
	}
}

func TestBlockTextPureOnRepeat(t *testing.T) {
	body := parseBody(t, `<p>one</p><table><tr><td>x</td></tr></table>`)
	first := BlockText(body)
	second := BlockText(body)
	if first != second {
		t.Errorf("BlockText not restartable: %q then %q", first, second)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untouched", "a\n\nb", "a\n\nb"},
		{"three to two", "a\n\n\nb", "a\n\nb"},
		{"many to two", "a\n\n\n\n\n\nb", "a\n\nb"},
		{"multiple runs", "a\n\n\nb\n\n\n\nc", "a\n\nb\n\nc"},
	}
	for _, tt := range tests {
		if got := CollapseBlankLines(tt.in); got != tt.want {
			t.Errorf("%s: CollapseBlankLines = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCollapseBlankLinesIdempotent(t *testing.T) {
	in := "a\n\n\n\nb\n\n\nc\n\n\n\n\nd"
	once := CollapseBlankLines(in)
	twice := CollapseBlankLines(once)
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}
