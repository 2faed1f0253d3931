package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"requote/store"
)

var templateReset bool

var templateCmd = &cobra.Command{
	Use:   "template [new-template]",
	Short: "Show or set the citation template",
	Long: `Template prints the stored citation template, or replaces it when a
new template is given. The template must contain the {quote}
placeholder exactly once; the captured quote is substituted for it
when composing a message.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storePath, err := cfg.StorePath()
		if err != nil {
			return err
		}
		st, err := store.Open(storePath)
		if err != nil {
			return err
		}
		defer st.Close()

		switch {
		case templateReset:
			if err := st.SetTemplate(cfg.Quote.Template); err != nil {
				return err
			}
		case len(args) == 1:
			// Allow literal \n in shell arguments.
			tmpl := strings.ReplaceAll(args[0], `\n`, "\n")
			if err := st.SetTemplate(tmpl); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), labelStyle.Render("Citation template:"))
		fmt.Fprintln(cmd.OutOrStdout(), quoteStyle.Render(st.Current()))
		return nil
	},
}

func init() {
	templateCmd.Flags().BoolVar(&templateReset, "reset", false, "Restore the configured default template")
	rootCmd.AddCommand(templateCmd)
}
