package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"requote/fetcher"
)

var (
	snapshotOut      string
	snapshotRendered bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Save a page snapshot for offline extraction",
	Long: `Snapshot fetches a page and writes its HTML to a file. Plain HTTP is
used when possible; pages whose math is rendered client-side are
loaded in a headless browser so the rendered markup is captured.

--rendered forces the headless browser.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher.Configure(fetcher.Options{
			UserAgent:      cfg.Fetcher.UserAgent,
			TimeoutSeconds: cfg.Fetcher.TimeoutSeconds,
			ChromePath:     cfg.Fetcher.ChromePath,
		})

		var result *fetcher.FetchResult
		var err error
		if snapshotRendered {
			result, err = fetcher.Rendered(args[0])
		} else {
			result, err = fetcher.Smart(args[0])
		}
		if err != nil {
			return err
		}

		if snapshotOut == "" || snapshotOut == "-" {
			fmt.Fprint(cmd.OutOrStdout(), result.HTML)
			return nil
		}
		if err := os.WriteFile(snapshotOut, []byte(result.HTML), 0o644); err != nil {
			return err
		}

		method := "http"
		if result.UsedBrowser {
			method = "browser"
		}
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(
			fmt.Sprintf("saved %s (%s, %s)", snapshotOut, method, result.FetchTime.Round(10*time.Millisecond))))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "Output file (default stdout)")
	snapshotCmd.Flags().BoolVar(&snapshotRendered, "rendered", false, "Always use the headless browser")
	rootCmd.AddCommand(snapshotCmd)
}
