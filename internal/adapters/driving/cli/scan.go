package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driving"
	"github.com/Y10K-tech/reqstudio/internal/logger"
)

var (
	scanFull     bool
	scanSince    string
	scanNoEmbed  bool
	scanWatch    bool
	scanWatchDir string
)

// watchDebounce coalesces bursts of filesystem events into one rescan.
const watchDebounce = 2 * time.Second

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the repository and update the index",
	Long: `Walks the repository working tree, parses requirement documents and
upserts changed revisions into the index. Incremental by default; the
first scan of a repository is always full.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanFull, "full", false, "scan every document, not just changes")
	scanCmd.Flags().StringVar(&scanSince, "since", "", "scan changes since this revision")
	scanCmd.Flags().BoolVar(&scanNoEmbed, "no-embed", false, "skip embedding generation")
	scanCmd.Flags().BoolVar(&scanWatch, "watch", false, "keep running and rescan on file changes")
	scanCmd.Flags().StringVar(&scanWatchDir, "watch-dir", ".", "directory to watch with --watch")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	opts := driving.ScanOptions{
		Mode:          domain.ScanIncremental,
		SinceRef:      scanSince,
		SkipEmbedding: scanNoEmbed,
	}
	if scanFull {
		opts.Mode = domain.ScanFull
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scanOnce(ctx, cmd, opts); err != nil {
		return err
	}
	if !scanWatch {
		return nil
	}
	return watchLoop(ctx, cmd, opts)
}

func scanOnce(ctx context.Context, cmd *cobra.Command, opts driving.ScanOptions) error {
	summary, err := indexer.Scan(ctx, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary *domain.ScanSummary) {
	cmd.Printf("Scanned at %s in %s\n",
		summary.CommitSHA, summary.Finished.Sub(summary.Started).Round(time.Millisecond))
	cmd.Printf("  indexed: %d  unchanged: %d  warned: %d  failed: %d\n",
		summary.Indexed, summary.Unchanged, summary.Warned, summary.Failed)
	cmd.Printf("  items: %d  links: %d  embeddings pending: %d\n",
		summary.ItemsParsed, summary.LinksParsed, summary.EmbeddingsPending)

	if len(summary.Warnings) == 0 {
		return
	}
	paths := make([]string, 0, len(summary.Warnings))
	for path := range summary.Warnings {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, warning := range summary.Warnings[path] {
			cmd.Printf("  warning: %s: %s\n", path, warning)
		}
	}
}

// watchLoop rescans incrementally whenever a tracked document changes,
// debouncing event bursts. Blocks until the context is cancelled.
func watchLoop(ctx context.Context, cmd *cobra.Command, opts driving.ScanOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, scanWatchDir); err != nil {
		return err
	}

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)\n", scanWatchDir)

	// After the initial scan, watch rescans are always incremental.
	opts.Mode = domain.ScanIncremental
	opts.SinceRef = ""

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			logger.Debug("Change detected: %s (%s)", event.Name, event.Op)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timerCh:
			timer = nil
			timerCh = nil
			if err := scanOnce(ctx, cmd, opts); err != nil {
				logger.Warn("Rescan failed: %v", err)
			}
		}
	}
}

// addWatchDirs registers root and its non-hidden subdirectories, plus
// the .git directory so new commits trigger a rescan.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	if err := watcher.Add(filepath.Join(root, ".git")); err != nil {
		logger.Debug("Not watching .git: %v", err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// relevantEvent reports whether a filesystem event should trigger a
// rescan: writes, creates or removals of tracked document types.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	// HEAD moves on every commit.
	if base == "HEAD" {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}
