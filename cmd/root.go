// Package cmd implements the requote command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"requote/config"
	"requote/extract"
)

var (
	cfg        *config.Config
	initConfig bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "requote",
	Short: "Capture rendered selections as semantic quotes",
	Long: `Requote converts a selected region of a rendered page back into
semantic text: LaTeX math keeps its source, tables become aligned
Markdown grids, and block boundaries become newlines. The captured
quote is merged with a message through a citation template and sent
through the page's own input.

Quick Start:
  requote extract page.html --selector "#answer"   # Extract a region
  requote compose page.html --selector "#answer"   # Run the full quote pipeline
  requote template                                 # Show the citation template
  requote snapshot https://example.com -o page.html`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initConfig {
			fmt.Print(config.DefaultTOML())
			os.Exit(0)
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s", config.FormatError(err))
		}
		extract.Configure(extract.Options{
			LatexEnabled:  cfg.Extract.LatexEnabled,
			TablesEnabled: cfg.Extract.TablesEnabled,
		})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&initConfig, "init-config", false, "Print the default configuration and exit")
}
