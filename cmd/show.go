package cmd

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"keyword_tiers/output"
	"keyword_tiers/rating"
)

// =============================================================================
// Show Command Flags
// =============================================================================

var (
	showTreeFile     string
	showClustersFile string
	showTop          int
)

// =============================================================================
// Show Command
// =============================================================================

var showCmd = &cobra.Command{
	Use:   "show [article-id...]",
	Short: "Summarize written tier outputs",
	Long: `Load the tier tree and the article-to-circle map written by rate and
print tier sizes, the highest scoring keywords per tier, and the circles of
any article IDs given as arguments.

Examples:
  keyword-tiers show
  keyword-tiers show --top 10 12 27`,
	RunE: runShow,
}

func init() {
	flags := showCmd.Flags()
	flags.StringVar(&showTreeFile, "tree", "", "tier tree JSON (default output.tree_file)")
	flags.StringVar(&showClustersFile, "clusters", "", "article-to-circle JSON (default output.clusters_file)")
	flags.IntVarP(&showTop, "top", "n", 5, "keywords to list per tier")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	treePath := cfg.Output.TreeFile
	if showTreeFile != "" {
		treePath = showTreeFile
	}
	clustersPath := cfg.Output.ClustersFile
	if showClustersFile != "" {
		clustersPath = showClustersFile
	}

	tree, err := output.ReadTree(treePath)
	if err != nil {
		return err
	}
	clusters, err := output.ReadClusters(clustersPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tier tree contains %d keywords across %d articles\n", tree.Len(), len(clusters))
	fmt.Fprintln(out, strings.Repeat("-", 60))

	var values []float64
	for _, tier := range rating.Tiers {
		entries := slices.Clone(tree.Entries(tier))
		for _, entry := range entries {
			values = append(values, entry.Value)
		}
		printTier(out, tier, entries, showTop)
	}

	s := rating.SummarizeValues(values)
	fmt.Fprintf(out, "Scores: count=%d mean=%.4f std_dev=%.4f min=%.4f max=%.4f\n",
		s.Count, s.Mean, s.StdDev, s.Min, s.Max)

	for _, id := range args {
		circles, ok := clusters[id]
		if !ok {
			fmt.Fprintf(out, "Article %s: not found\n", id)
			continue
		}
		fmt.Fprintf(out, "Article %s: %s\n", id, strings.Join(circles, ", "))
	}
	return nil
}

func printTier(out io.Writer, tier rating.Tier, entries []rating.KeywordEntry, top int) {
	fmt.Fprintf(out, "%s (%d)\n", tier, len(entries))
	slices.SortStableFunc(entries, func(a, b rating.KeywordEntry) int {
		return cmp.Compare(b.Value, a.Value)
	})
	for i, entry := range entries {
		if i >= top {
			break
		}
		fmt.Fprintf(out, "  %d. %s  value=%.4f  %s  markers=%s\n",
			i+1, entry.Name, entry.Value, entry.CircleID, entry.Markers)
	}
}
