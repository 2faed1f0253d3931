// Package extract converts selected regions of a rendered tree into
// faithful semantic text: math source notation preserved, tables as
// Markdown grids, block boundaries normalized to newlines.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockAtoms force a trailing newline after their rendered content.
var blockAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Hr:         true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Tr:         true,
}

// skipAtoms render nothing at all.
var skipAtoms = map[atom.Atom]bool{
	atom.Style:    true,
	atom.Script:   true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
}

// BlockText flattens a node to plain text. Text nodes yield their
// literal content, block elements force a trailing newline, <br> yields
// a newline, tables are delegated to MarkdownTable wrapped in newlines
// unless table serialization is disabled via Configure.
// Pure function; the tree is never modified.
func BlockText(n *html.Node) string {
	var sb strings.Builder
	blockText(n, &sb)
	return sb.String()
}

func blockText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	if n.Type == html.ElementNode {
		if skipAtoms[n.DataAtom] {
			return
		}
		switch n.DataAtom {
		case atom.Br:
			sb.WriteString("\n")
			return
		case atom.Table:
			if opts.TablesEnabled {
				if md := MarkdownTable(n); md != "" {
					sb.WriteString("\n" + md + "\n")
				}
				return
			}
			// disabled: fall through to plain child text
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		blockText(c, sb)
	}

	if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
		if s := sb.String(); !strings.HasSuffix(s, "\n") {
			sb.WriteString("\n")
		}
	}
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// CollapseBlankLines squeezes runs of three or more newlines down to
// exactly two. Idempotent.
func CollapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}
