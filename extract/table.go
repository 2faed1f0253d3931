package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"requote/dom"
)

const minColumnWidth = 3

var cellNewlineRe = regexp.MustCompile(`\s*\n\s*`)

// MarkdownTable renders a table node as an aligned Markdown grid, or ""
// when the table has no rows. The first row is treated as the header
// unconditionally, whether or not it is marked up as one.
func MarkdownTable(tbl *html.Node) string {
	rows := tableRows(tbl)
	if len(rows) == 0 {
		return ""
	}

	// Rectangularize: pad short rows to the widest row.
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}
	for i, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		rows[i] = row
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = minColumnWidth
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var lines []string
	lines = append(lines, formatRow(rows[0], widths))
	lines = append(lines, separatorRow(widths))
	for _, row := range rows[1:] {
		lines = append(lines, formatRow(row, widths))
	}
	return strings.Join(lines, "\n")
}

// restoreTable rebuilds clipped table structure in a cloned fragment.
// A fragment holding rows or cells without an enclosing table element
// would flatten to run-together text; re-wrapping the children in a
// synthetic table puts them back on the grid serialization path. Bare
// cells with no row left get a synthetic row too.
func restoreTable(frag *html.Node) {
	if dom.First(frag, "table") != nil || dom.First(frag, "tr, td, th") == nil {
		return
	}
	tbl := dom.NewElement("table")
	for frag.FirstChild != nil {
		c := frag.FirstChild
		frag.RemoveChild(c)
		tbl.AppendChild(c)
	}
	if dom.First(tbl, "tr") == nil {
		row := dom.NewElement("tr")
		for tbl.FirstChild != nil {
			c := tbl.FirstChild
			tbl.RemoveChild(c)
			row.AppendChild(c)
		}
		tbl.AppendChild(row)
	}
	frag.AppendChild(tbl)
}

// tableRows extracts one slice of cell texts per table row. Cell content
// goes through BlockText, then is trimmed and flattened to a single line.
// Rows of nested tables are skipped here; they reach the output through
// their outer cell's text instead.
func tableRows(tbl *html.Node) [][]string {
	var rows [][]string
	for _, tr := range dom.All(tbl, "tr") {
		if !ownRow(tr, tbl) {
			continue
		}
		var cells []string
		collectCells(tr, &cells)
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// ownRow reports whether tr belongs directly to tbl rather than to a
// table nested somewhere inside it.
func ownRow(tr, tbl *html.Node) bool {
	for p := tr.Parent; p != nil; p = p.Parent {
		if p == tbl {
			return true
		}
		if p.Type == html.ElementNode && p.DataAtom == atom.Table {
			return false
		}
	}
	return false
}

// collectCells walks a row's subtree for th/td cells without descending
// into nested tables.
func collectCells(n *html.Node, cells *[]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Th, atom.Td:
			*cells = append(*cells, cellText(c))
		case atom.Table:
			// nested table: belongs to its own serialization
		default:
			collectCells(c, cells)
		}
	}
}

func cellText(cell *html.Node) string {
	text := strings.TrimSpace(BlockText(cell))
	return cellNewlineRe.ReplaceAllString(text, " ")
}

func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
		sb.WriteString(" |")
	}
	return sb.String()
}

func separatorRow(widths []int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, w := range widths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString(" |")
	}
	return sb.String()
}
