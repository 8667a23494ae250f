package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	suggestCount int
	suggestJSON  bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [identifier]",
	Short: "Suggest link targets for an item",
	Long: `Ranks candidate traceability link targets for an item by embedding
similarity, excluding the item itself and targets it already links to.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestCount, "count", "n", 10, "number of suggestions")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "output suggestions as JSON")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	suggestions, err := queryService.SuggestLinks(context.Background(), args[0], suggestCount)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	if suggestJSON {
		return printJSON(cmd, suggestions)
	}

	if len(suggestions) == 0 {
		cmd.Println("No candidates found.")
		return nil
	}
	for i := range suggestions {
		cmd.Printf("  [%d] %s (%s)  %s (%.3f)\n", i+1,
			suggestions[i].TargetIdentifier, suggestions[i].Type,
			suggestions[i].Title, suggestions[i].Similarity)
	}
	return nil
}
