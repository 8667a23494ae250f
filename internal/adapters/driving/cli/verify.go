package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the head commit references an identifier",
	Long: `Checks that the head commit's subject line carries at least one
strict identifier. Intended for commit hooks and CI gates.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	if err := indexer.VerifyHead(context.Background()); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}
