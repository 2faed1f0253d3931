package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"requote/dom"
	"requote/host"
	"requote/inject"
	"requote/quote"
	"requote/rules"
	"requote/store"
)

var (
	composeSelector string
	composeMessage  string
	composeURL      string
)

var quoteStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("212")).
	PaddingLeft(2)

var composeCmd = &cobra.Command{
	Use:   "compose <file-or-url>",
	Short: "Run the full quote pipeline against a page",
	Long: `Compose drives the whole capture-and-send pipeline headlessly:
it selects the region named by --selector, captures it as a quote,
merges it with --message through the citation template, injects the
result into the page's input surface and triggers the page's own send.

The message that would have been sent is printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		profileDir, err := cfg.ProfileDir()
		if err != nil {
			return err
		}
		set, err := rules.LoadDir(profileDir)
		if err != nil {
			return err
		}
		pageURL := composeURL
		if pageURL == "" {
			pageURL = args[0]
		}
		profile := set.ForURL(pageURL)

		storePath, err := cfg.StorePath()
		if err != nil {
			return err
		}
		st, err := store.Open(storePath)
		if err != nil {
			return err
		}
		defer st.Close()

		loop := host.NewLoop()
		h := host.New(doc, profile, loop)
		h.Navigate(pageURL)
		h.SetNoticeFunc(func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(msg))
		})

		ctrl := quote.NewController(h, st, timingsFromConfig())
		ctrl.Bind()

		target := dom.First(doc, composeSelector)
		if target == nil {
			return fmt.Errorf("no element matches %q", composeSelector)
		}
		if !profile.InResponseContainer(target) {
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(
				"warning: target is outside a recognized response container for this site"))
		}

		h.SetSelection(dom.NodeRange(target))
		h.PointerUp(target)
		loop.Advance(ctrl.Timings().SelectionSettle)
		ctrl.CommitSelection()
		if ctrl.State() != quote.Quoted {
			return fmt.Errorf("selection produced no quotable text")
		}

		input := profile.FindInput(doc)
		if input == nil {
			return fmt.Errorf("no input surface on this page")
		}
		if composeMessage != "" {
			if !inject.Inject(input, composeMessage, h) {
				return fmt.Errorf("could not inject the message")
			}
		}

		if send := profile.FindSendControl(doc); send != nil {
			h.Click(send)
		} else {
			h.Keydown(input, "Enter", false)
		}
		t := ctrl.Timings()
		loop.Advance(t.FocusSettle + t.SendDispatch + t.BypassClear)

		if len(h.Sent) != 1 {
			return fmt.Errorf("send did not complete")
		}

		fmt.Fprintln(cmd.OutOrStdout(), labelStyle.Render("Sent:"))
		fmt.Fprintln(cmd.OutOrStdout(), quoteStyle.Render(h.Sent[0]))
		return nil
	},
}

// timingsFromConfig converts the configured millisecond values into
// controller deferral durations.
func timingsFromConfig() quote.Timings {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return quote.Timings{
		SelectionSettle: ms(cfg.Timings.SelectionSettleMs),
		FocusSettle:     ms(cfg.Timings.FocusSettleMs),
		SendDispatch:    ms(cfg.Timings.SendDispatchMs),
		BypassClear:     ms(cfg.Timings.BypassClearMs),
		LocationPoll:    ms(cfg.Timings.LocationPollMs),
	}
}

func init() {
	composeCmd.Flags().StringVarP(&composeSelector, "selector", "s", "", "CSS selector for the region to quote (required)")
	composeCmd.Flags().StringVarP(&composeMessage, "message", "m", "", "Message to merge with the quote")
	composeCmd.Flags().StringVar(&composeURL, "url", "", "URL to match site profiles against (defaults to the argument)")
	composeCmd.MarkFlagRequired("selector")
	rootCmd.AddCommand(composeCmd)
}
