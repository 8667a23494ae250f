package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for pending items",
	Long: `Retries embedding generation for items that earlier scans left
without vectors, typically because the embedding service was down or a
scan ran with --no-embed.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	count, err := indexer.EmbedPending(context.Background())
	if err != nil {
		return fmt.Errorf("embed failed after %d items: %w", count, err)
	}

	if count == 0 {
		cmd.Println("Nothing pending.")
		return nil
	}
	cmd.Printf("Embedded %d items.\n", count)
	return nil
}
