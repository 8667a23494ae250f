package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
)

var baselineJSON bool

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Freeze and compare baselines",
	Long: `Baselines are named, immutable snapshots of every identifier's
resolved revision at a commit. Creating one also tags the commit as
baseline/<name>.`,
}

var baselineCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Freeze the current state under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineCreate,
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List baselines",
	RunE:  runBaselineList,
}

var baselineDiffCmd = &cobra.Command{
	Use:   "diff [older] [newer]",
	Short: "Compare two baselines",
	Args:  cobra.ExactArgs(2),
	RunE:  runBaselineDiff,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a baseline's manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineShow,
}

func init() {
	baselineListCmd.Flags().BoolVar(&baselineJSON, "json", false, "output as JSON")
	baselineCmd.AddCommand(baselineCreateCmd, baselineListCmd, baselineDiffCmd, baselineShowCmd)
	rootCmd.AddCommand(baselineCmd)
}

func runBaselineCreate(cmd *cobra.Command, args []string) error {
	if baselineService == nil {
		return errors.New("baseline service not configured")
	}

	baseline, err := baselineService.Create(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateBaseline) {
			return fmt.Errorf("baseline %q already exists", args[0])
		}
		return fmt.Errorf("create baseline: %w", err)
	}

	cmd.Printf("Baseline %s frozen at %s\n", baseline.Name, baseline.CommitSHA)
	cmd.Printf("  manifest hash: %s\n", baseline.ManifestHash)
	return nil
}

func runBaselineList(cmd *cobra.Command, _ []string) error {
	if baselineService == nil {
		return errors.New("baseline service not configured")
	}

	baselines, err := baselineService.List(context.Background())
	if err != nil {
		return fmt.Errorf("list baselines: %w", err)
	}

	if baselineJSON {
		return printJSON(cmd, baselines)
	}

	if len(baselines) == 0 {
		cmd.Println("No baselines.")
		return nil
	}
	for i := range baselines {
		cmd.Printf("  %s  %s  %s\n", baselines[i].Name,
			baselines[i].CommitSHA, baselines[i].CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runBaselineDiff(cmd *cobra.Command, args []string) error {
	if baselineService == nil {
		return errors.New("baseline service not configured")
	}

	diff, err := baselineService.Compare(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("diff baselines: %w", err)
	}

	printDiffSection(cmd, "added", diff.Added)
	printDiffSection(cmd, "removed", diff.Removed)
	printDiffSection(cmd, "changed", diff.Changed)
	cmd.Printf("unchanged: %d\n", len(diff.Unchanged))
	return nil
}

func printDiffSection(cmd *cobra.Command, label string, identifiers []string) {
	cmd.Printf("%s: %d\n", label, len(identifiers))
	for _, id := range identifiers {
		cmd.Printf("  %s\n", id)
	}
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	if baselineService == nil {
		return errors.New("baseline service not configured")
	}

	manifest, err := baselineService.Manifest(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("show baseline: %w", err)
	}
	cmd.Println(string(manifest))
	return nil
}
