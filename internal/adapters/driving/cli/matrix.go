package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	matrixTypes []string
	matrixJSON  bool
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the traceability matrix",
	Long: `Assembles the traceability matrix: each requirement with the
components implementing it, the tests verifying it, and the commits
mentioning it. Suspect rows have an inbound link whose target changed
since the link was recorded.`,
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().StringSliceVar(&matrixTypes, "type", nil, "row item types (default HL, LL)")
	matrixCmd.Flags().BoolVar(&matrixJSON, "json", false, "output the matrix as JSON")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	types, err := parseTypes(matrixTypes)
	if err != nil {
		return err
	}

	rows, err := queryService.Matrix(context.Background(), types)
	if err != nil {
		return fmt.Errorf("matrix failed: %w", err)
	}

	if matrixJSON {
		return printJSON(cmd, rows)
	}

	if len(rows) == 0 {
		cmd.Println("No requirements indexed.")
		return nil
	}
	for i := range rows {
		marker := " "
		if rows[i].Suspect {
			marker = "!"
		}
		cmd.Printf("%s %s  %s\n", marker, rows[i].Requirement, rows[i].Title)
		if len(rows[i].Components) > 0 {
			cmd.Printf("    implemented by: %s\n", strings.Join(rows[i].Components, ", "))
		}
		if len(rows[i].Tests) > 0 {
			cmd.Printf("    verified by:    %s\n", strings.Join(rows[i].Tests, ", "))
		}
		if len(rows[i].Commits) > 0 {
			cmd.Printf("    commits:        %s\n", strings.Join(shorten(rows[i].Commits), ", "))
		}
		if len(rows[i].Dangling) > 0 {
			cmd.Printf("    dangling:       %s\n", strings.Join(rows[i].Dangling, ", "))
		}
	}
	return nil
}

// shorten abbreviates commit SHAs for display.
func shorten(shas []string) []string {
	out := make([]string, len(shas))
	for i, sha := range shas {
		if len(sha) > 8 {
			sha = sha[:8]
		}
		out[i] = sha
	}
	return out
}
