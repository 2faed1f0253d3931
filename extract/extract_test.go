package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"requote/dom"
)

func textNodeOf(t *testing.T, n *html.Node) *html.Node {
	t.Helper()
	var found *html.Node
	dom.Walk(n, func(c *html.Node) bool {
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

func TestExtractPlainText(t *testing.T) {
	body := parseBody(t, `<div class="response"><p>The sky is blue</p></div>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "p")))
	if res.Text != "The sky is blue" {
		t.Errorf("Text = %q, want %q", res.Text, "The sky is blue")
	}
	if res.DisplayText != "The sky is blue" {
		t.Errorf("DisplayText = %q", res.DisplayText)
	}
}

func TestExtractInlineMathRoundTrip(t *testing.T) {
	body := parseBody(t, `<p><span class="katex">`+
		`<span class="katex-mathml"><math><semantics>`+
		`<annotation encoding="application/x-tex">X</annotation>`+
		`</semantics></math></span>`+
		`<span class="katex-html" aria-hidden="true">X</span>`+
		`</span></p>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "p")))
	if res.Text != "$X$" {
		t.Errorf("Text = %q, want %q", res.Text, "$X$")
	}
}

func TestExtractDisplayMathRoundTrip(t *testing.T) {
	body := parseBody(t, `<div class="katex-display"><span class="katex">`+
		`<span class="katex-mathml"><math><semantics>`+
		`<annotation encoding="application/x-tex">X</annotation>`+
		`</semantics></math></span>`+
		`<span class="katex-html" aria-hidden="true">X</span>`+
		`</span></div>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(body))
	if res.Text != "$$X$$" {
		t.Errorf("Text = %q, want %q", res.Text, "$$X$$")
	}
}

func TestExtractMathWithSurroundingText(t *testing.T) {
	body := parseBody(t, `<p>Euler: <span data-latex="e^{i\pi}+1=0">rendered</span> holds.</p>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "p")))
	want := `Euler: $e^{i\pi}+1=0$ holds.`
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if strings.Contains(res.DisplayText, "$") {
		t.Errorf("DisplayText leaked source notation: %q", res.DisplayText)
	}
}

func TestExtractSelectionInsideEquation(t *testing.T) {
	body := parseBody(t, `<math alttext="a+b"><mi>a</mi><mo>+</mo><mi>b</mi></math>`)
	mi := dom.First(body, "mi")
	ex := New(body)
	res := ex.Extract(dom.NodeRange(textNodeOf(t, mi)))
	if res.Text != "$a+b$" {
		t.Errorf("Text = %q, want %q", res.Text, "$a+b$")
	}
}

func TestExtractTableWithoutMath(t *testing.T) {
	body := parseBody(t, `<table><tr><td>A</td><td>BB</td></tr><tr><td>CCC</td><td>D</td></tr></table>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(body))
	if !strings.HasPrefix(res.Text, "| A   | BB  |") {
		t.Errorf("Text = %q, want markdown table", res.Text)
	}
	if got := len(strings.Split(res.Text, "\n")); got != 3 {
		t.Errorf("table block has %d lines, want 3", got)
	}
}

func TestExtractTableSelectedDirectly(t *testing.T) {
	// A selection covering exactly the table element clones only its row
	// groups; the grid must still come out.
	body := parseBody(t, `<table>
		<tr><td>A</td><td>BB</td></tr>
		<tr><td>CCC</td><td>D</td></tr>
	</table>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "table")))
	want := strings.Join([]string{
		"| A   | BB  |",
		"| --- | --- |",
		"| CCC | D   |",
	}, "\n")
	if res.Text != want {
		t.Errorf("Text =\n%s\nwant\n%s", res.Text, want)
	}
}

func TestExtractSelectionClippedInsideRow(t *testing.T) {
	// A selection whose common ancestor is a single row clones bare
	// cells with no row or table element around them.
	body := parseBody(t, `<table><tr><td>A</td><td>BB</td></tr><tr><td>CCC</td><td>D</td></tr></table>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "tr")))
	want := "| A   | BB  |\n| --- | --- |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestExtractLatexDisabled(t *testing.T) {
	defer Configure(DefaultOptions())
	Configure(Options{LatexEnabled: false, TablesEnabled: true})
	body := parseBody(t, `<p>Euler: <span data-latex="e^{i\pi}+1=0">rendered</span> holds.</p>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "p")))
	if res.Text != "Euler: rendered holds." {
		t.Errorf("Text = %q, want the plain visual text", res.Text)
	}
}

func TestExtractTablesDisabled(t *testing.T) {
	defer Configure(DefaultOptions())
	Configure(Options{LatexEnabled: true, TablesEnabled: false})
	body := parseBody(t, `<table><tr><td>A</td><td>BB</td></tr><tr><td>CCC</td><td>D</td></tr></table>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(body))
	if strings.Contains(res.Text, "|") {
		t.Errorf("grid produced with tables disabled: %q", res.Text)
	}
	if !strings.Contains(res.Text, "CCC") {
		t.Errorf("cell text missing: %q", res.Text)
	}
}

func TestExtractCollapsesBlankRuns(t *testing.T) {
	body := parseBody(t, `<div><p>a</p></div><div></div><div></div><div></div>`+
		`<p><span data-latex="x">x</span></p><p>b</p>`)
	ex := New(body)
	res := ex.Extract(dom.NodeRange(body))
	if strings.Contains(res.Text, "\n\n\n") {
		t.Errorf("blank run survived: %q", res.Text)
	}
}

func TestExtractClippedMathFallsBackToOriginal(t *testing.T) {
	// Selection starts inside the rendered half of the equation, so the
	// clone loses the semantic wrapper; the original tree supplies it.
	body := parseBody(t, `<p><span class="katex">`+
		`<span class="katex-mathml"><math><semantics>`+
		`<annotation encoding="application/x-tex">E=mc^2</annotation>`+
		`</semantics></math></span>`+
		`<span class="katex-html" aria-hidden="true">Emc2</span>`+
		`</span> tail</p>`)
	htmlHalf := dom.First(body, ".katex-html")
	p := dom.First(body, "p")
	rng := dom.Range{
		Start: dom.Boundary{Node: htmlHalf, Offset: 0},
		End:   dom.Boundary{Node: p, Offset: dom.ChildCount(p)},
	}
	ex := New(body)
	res := ex.Extract(rng)
	if !strings.Contains(res.Text, "$E=mc^2$") {
		t.Errorf("Text = %q, want recovered source", res.Text)
	}
	if strings.Contains(res.Text, "Emc2") {
		t.Errorf("rendered artifact leaked: %q", res.Text)
	}
}

func TestDisplayTextSquashed(t *testing.T) {
	body := parseBody(t, "<p>a\n  b   c</p>")
	ex := New(body)
	res := ex.Extract(dom.NodeRange(dom.First(body, "p")))
	if res.DisplayText != "a b c" {
		t.Errorf("DisplayText = %q, want %q", res.DisplayText, "a b c")
	}
}
