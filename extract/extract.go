package extract

import (
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"requote/dom"
	"requote/latex"
)

// Result is the outcome of one extraction: Text carries the semantic
// representation (math source, Markdown tables), DisplayText the plain
// visual text for compact previews. DisplayText never contains source
// notation.
type Result struct {
	Text        string
	DisplayText string
}

// Options controls which structures Extract recovers. With a concern
// disabled the selection degrades to plain visual text for that
// structure.
type Options struct {
	LatexEnabled  bool
	TablesEnabled bool
}

// DefaultOptions returns the package defaults, everything enabled.
func DefaultOptions() Options {
	return Options{LatexEnabled: true, TablesEnabled: true}
}

var opts = DefaultOptions()

// Configure sets package-wide extraction options.
func Configure(o Options) {
	opts = o
}

// Extractor converts a selection over a rendered tree into semantic
// text. It owns the cloned fragment only for the duration of one
// Extract call.
type Extractor struct {
	resolver *latex.Resolver
}

// New returns an extractor resolving math against the given original
// tree.
func New(root *html.Node) *Extractor {
	return &Extractor{resolver: latex.NewResolver(root)}
}

// Extract never fails hard: any internal error degrades to the
// selection's plain visual text, trimmed.
func (e *Extractor) Extract(rng dom.Range) (res Result) {
	plain := rng.Text()
	res = Result{
		Text:        strings.TrimSpace(plain),
		DisplayText: displayText(plain),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("extract: recovered from %v, falling back to plain text", r)
		}
	}()

	// Selection entirely inside a single rendered equation: the source
	// attribute is reachable from the original boundary even though a
	// clone would truncate the internal rendering structure.
	if opts.LatexEnabled {
		if ann := e.resolver.FromBoundary(rng); ann != nil {
			res.Text = ann.Wrapped()
			return res
		}
	}

	frag := rng.CloneContents()
	math := opts.LatexEnabled && latex.ContainsMath(frag)
	// The clone holds the common ancestor's children, never the ancestor
	// itself, so a selection covering exactly a table (or rows within
	// one) yields row groups and cells with no table element around
	// them. Checking for row and cell tags too keeps such selections on
	// the structured path.
	table := opts.TablesEnabled && dom.First(frag, "table, tr, td, th") != nil
	if !math && !table {
		return res
	}
	if math {
		e.resolver.Substitute(frag, rng)
	}
	if table {
		restoreTable(frag)
	}

	text := strings.TrimSpace(BlockText(frag))
	res.Text = CollapseBlankLines(text)
	return res
}

// displayText squashes the raw visual selection text onto single spaces
// for preview use, NFC-normalized.
func displayText(plain string) string {
	return norm.NFC.String(strings.Join(strings.Fields(plain), " "))
}
