package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autolysis/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List narrative providers and known model context windows",
	Example: `  autolysis models
  autolysis --model llama3.1:8b --provider ollama data.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Providers: %v\n\n", ai.Providers())
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tCONTEXT TOKENS")
		for _, mi := range ai.Catalog() {
			fmt.Fprintf(tw, "%s\t%d\n", mi.Name, mi.ContextTokens)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w, "\nUnlisted models are accepted; the prompt is then sent without a size check.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
