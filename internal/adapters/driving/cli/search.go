package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

var (
	searchLimit     int
	searchJSON      bool
	searchHybrid    bool
	searchAlpha     float64
	searchTruncated bool
	searchTypes     []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed requirement items",
	Long: `Performs vector similarity search over the current view of the index.
With --hybrid, vector similarity is blended with lexical term overlap as
alpha*vector + (1-alpha)*lexical.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchHybrid, "hybrid", false, "blend lexical and vector relevance")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", 0.7, "vector weight for --hybrid")
	searchCmd.Flags().BoolVar(&searchTruncated, "fast", false, "search the truncated vectors")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "filter by item type (HL, LL, CMP, ADR, API, DB, TST)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	req := domain.SearchRequest{
		Query: args[0],
		Limit: searchLimit,
		Alpha: searchAlpha,
	}
	if searchTruncated {
		req.Dimension = domain.DimensionTruncated
	}
	types, err := parseTypes(searchTypes)
	if err != nil {
		return err
	}
	req.Types = types

	ctx := context.Background()
	var results []domain.SearchResult
	if searchHybrid {
		results, err = queryService.HybridSearch(ctx, req)
	} else {
		results, err = queryService.Search(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, results)
	}
	return printSearchTable(cmd, results)
}

func printSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range results {
		cmd.Printf("  [%d] %s  %s (%.3f)\n", i+1, results[i].Identifier, results[i].Title, results[i].Score)
		if results[i].Path != "" {
			cmd.Printf("      %s\n", results[i].Path)
		}
	}
	return nil
}

// printJSON renders any payload as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// parseTypes validates --type values against the closed type set.
func parseTypes(raw []string) ([]domain.ItemType, error) {
	types := make([]domain.ItemType, 0, len(raw))
	for _, r := range raw {
		t := domain.ItemType(strings.ToUpper(strings.TrimSpace(r)))
		if !t.Valid() {
			return nil, fmt.Errorf("unknown item type %q", r)
		}
		types = append(types, t)
	}
	return types, nil
}
