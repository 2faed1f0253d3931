package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"requote/dom"
	"requote/extract"
	"requote/fetcher"
)

var (
	extractSelector string
	extractRender   bool
)

var (
	// Styles
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var extractCmd = &cobra.Command{
	Use:   "extract <file-or-url>",
	Short: "Extract semantic text from a region of a page",
	Long: `Extract converts a region of a rendered page into semantic text.
Math rendered by KaTeX or MathJax is replaced with its LaTeX source,
tables become aligned Markdown grids, and block boundaries become
newlines.

The region defaults to the whole body; --selector narrows it to the
first matching element.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		target := dom.First(doc, "body")
		if target == nil {
			target = doc
		}
		if extractSelector != "" {
			target = dom.First(doc, extractSelector)
			if target == nil {
				return fmt.Errorf("no element matches %q", extractSelector)
			}
		}

		res := extract.New(doc).Extract(dom.NodeRange(target))
		if strings.TrimSpace(res.Text) == "" {
			return fmt.Errorf("selected region contains no text")
		}

		if extractRender {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("renderer: %w", err)
			}
			out, err := r.Render(res.Text)
			if err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}
			fmt.Print(out)
			return nil
		}

		fmt.Println(res.Text)
		return nil
	},
}

// loadDocument parses a page from a local file or, for http(s)
// arguments, a network snapshot.
func loadDocument(arg string) (*html.Node, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		fetcher.Configure(fetcher.Options{
			UserAgent:      cfg.Fetcher.UserAgent,
			TimeoutSeconds: cfg.Fetcher.TimeoutSeconds,
			ChromePath:     cfg.Fetcher.ChromePath,
		})
		result, err := fetcher.Smart(arg)
		if err != nil {
			return nil, err
		}
		if result.UsedBrowser {
			fmt.Fprintln(os.Stderr, dimStyle.Render("rendered with headless browser"))
		}
		return html.Parse(strings.NewReader(result.HTML))
	}

	f, err := os.Open(arg)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return html.Parse(f)
}

func init() {
	extractCmd.Flags().StringVarP(&extractSelector, "selector", "s", "", "CSS selector for the region to extract")
	extractCmd.Flags().BoolVar(&extractRender, "render", false, "Render the extracted Markdown to the terminal")
	rootCmd.AddCommand(extractCmd)
}
