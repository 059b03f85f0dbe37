package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"keyword_tiers/corpus"
	"keyword_tiers/crawler"
)

// =============================================================================
// Matrix Command Flags
// =============================================================================

var (
	matrixKeywordsFile string
	matrixAllowFile    string
	matrixOut          string
)

// =============================================================================
// Matrix Command
// =============================================================================

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Build the keyword-frequency matrix from allow-listed articles",
	Long: `Fetch every article in the allow-list, count how often each keyword
label occurs in its visible text, and write the counts in the CSV layout
read by the rate command.

The keywords file holds one label per line. Blank lines are skipped.

Examples:
  keyword-tiers matrix --keywords keywords.txt
  keyword-tiers matrix --keywords keywords.txt --allow top40-url-markerid.csv --out word_frequency.csv`,
	Args: cobra.NoArgs,
	RunE: runMatrix,
}

func init() {
	flags := matrixCmd.Flags()
	flags.StringVarP(&matrixKeywordsFile, "keywords", "k", "", "file with one keyword label per line")
	flags.StringVar(&matrixAllowFile, "allow", "", "article allow-list CSV (default input.allowlist_file)")
	flags.StringVarP(&matrixOut, "out", "o", "", "output CSV (default input.frequency_file)")
	_ = matrixCmd.MarkFlagRequired("keywords")

	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	allowPath := cfg.Input.AllowListFile
	if matrixAllowFile != "" {
		allowPath = matrixAllowFile
	}
	outPath := cfg.Input.FrequencyFile
	if matrixOut != "" {
		outPath = matrixOut
	}

	labels, err := readLabels(matrixKeywordsFile)
	if err != nil {
		return err
	}
	allow, err := corpus.LoadAllowListFile(allowPath)
	if err != nil {
		return err
	}

	c, err := crawler.New(cfg.Crawler, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("building matrix", "articles", allow.Size(), "keywords", len(labels), "workers", cfg.Crawler.Workers)
	matrix, stats, err := c.BuildMatrix(ctx, allow.Keys(), labels)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()
	if err := matrix.WriteCSV(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d articles x %d keywords to %s (%d fetched, %d failed, %d skipped)\n",
		len(matrix.Keys), len(labels), outPath, stats.Fetched, stats.Failed, stats.Skipped)
	return f.Close()
}

// readLabels reads one trimmed label per non-blank line.
func readLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return labels, nil
}
