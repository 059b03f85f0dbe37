package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"keyword_tiers/config"
	"keyword_tiers/corpus"
	"keyword_tiers/output"
	"keyword_tiers/rating"
)

// =============================================================================
// Constants
// =============================================================================

// WatchDebounce is how long rate --watch waits for input writes to settle.
const WatchDebounce = 250 * time.Millisecond

// =============================================================================
// Rate Command Flags
// =============================================================================

var (
	rateFreqFile    string
	rateAllowFile   string
	rateTreeOut     string
	rateClustersOut string
	rateNormalize   bool
	rateIndent      bool
	rateWatch       bool
)

// =============================================================================
// Rate Command
// =============================================================================

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Compute keyword tiers from the frequency matrix",
	Long: `Read the keyword-frequency matrix and the article allow-list, score
every keyword with TF-IDF, and write the tier tree and the
article-to-circle map as JSON.

Examples:
  keyword-tiers rate
  keyword-tiers rate --freq word_frequency.csv --allow top40-url-markerid.csv
  keyword-tiers rate --watch`,
	Args: cobra.NoArgs,
	RunE: runRate,
}

func init() {
	flags := rateCmd.Flags()
	flags.StringVar(&rateFreqFile, "freq", "", "keyword-frequency CSV (overrides input.frequency_file)")
	flags.StringVar(&rateAllowFile, "allow", "", "article allow-list CSV (overrides input.allowlist_file)")
	flags.StringVar(&rateTreeOut, "tree-out", "", "tier tree JSON path (overrides output.tree_file)")
	flags.StringVar(&rateClustersOut, "clusters-out", "", "article-to-circle JSON path (overrides output.clusters_file)")
	flags.BoolVar(&rateNormalize, "normalize-length", false, "divide term frequency by rating.article_length")
	flags.BoolVar(&rateIndent, "indent", false, "indent JSON output")
	flags.BoolVarP(&rateWatch, "watch", "w", false, "rerun whenever an input file changes")

	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	applyRateFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !rateWatch {
		res, err := runPipeline(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d keywords to %s and %d articles to %s\n",
			res.Tree.Len(), cfg.Output.TreeFile, len(res.Clusters), cfg.Output.ClustersFile)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchInputs(ctx, cfg, logger)
}

// applyRateFlags copies explicitly set flags over the loaded config.
func applyRateFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("freq") {
		c.Input.FrequencyFile = rateFreqFile
	}
	if flags.Changed("allow") {
		c.Input.AllowListFile = rateAllowFile
	}
	if flags.Changed("tree-out") {
		c.Output.TreeFile = rateTreeOut
	}
	if flags.Changed("clusters-out") {
		c.Output.ClustersFile = rateClustersOut
	}
	if flags.Changed("normalize-length") {
		c.Rating.EnableLengthNormalization = rateNormalize
	}
	if flags.Changed("indent") {
		c.Output.Indent = rateIndent
	}
}

// =============================================================================
// Pipeline
// =============================================================================

// runPipeline loads the inputs, rates the corpus and writes both outputs.
func runPipeline(c *config.Config, logger *slog.Logger) (*rating.Result, error) {
	runLogger := logger.With("run_id", uuid.New().String())

	in, err := corpus.LoadFiles(c.Input.FrequencyFile, c.Input.AllowListFile)
	if err != nil {
		return nil, err
	}
	runLogger.Info("corpus loaded",
		"articles", len(in.Articles), "keywords", len(in.Labels), "corpus_size", in.CorpusSize)

	opts := []rating.Option{rating.WithLogger(runLogger)}
	if c.Rating.EnableLengthNormalization {
		opts = append(opts, rating.WithLengthNormalization(c.Rating.ArticleLength))
	}
	engine, err := rating.New(in, opts...)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run()
	if err != nil {
		return nil, err
	}

	if err := output.WriteResult(res, c.Output.TreeFile, c.Output.ClustersFile, c.Output.Indent); err != nil {
		return nil, err
	}
	runLogger.Info("outputs written",
		"tree", c.Output.TreeFile, "clusters", c.Output.ClustersFile,
		"mean", res.Summary.Mean, "std_dev", res.Summary.StdDev, "max", res.Summary.Max)
	return res, nil
}

// =============================================================================
// Watch Mode
// =============================================================================

// watchInputs runs the pipeline once, then again after every change to
// either input file, until ctx is done. Failed runs are logged.
func watchInputs(ctx context.Context, c *config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range []string{c.Input.FrequencyFile, c.Input.AllowListFile} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch directories rather than files so editors that replace the
	// file on save are still seen.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	rerun := func() {
		if _, err := runPipeline(c, logger); err != nil {
			logger.Error("rating failed", "error", err)
		}
	}
	rerun()

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] || event.Op&relevant == 0 {
				continue
			}
			logger.Debug("input changed", "file", abs, "op", event.Op.String())
			debounce = time.After(WatchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-debounce:
			debounce = nil
			rerun()
		}
	}
}
