package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lexrag/internal/usecase"
)

var (
	searchQuery string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Retrieve passages without generating an answer",
	Long: `Search runs dense nearest-neighbor retrieval and prints the raw passages.
No reranking, no LLM; useful for checking the corpus independent of
generation availability or cost.

Examples:
  lexrag search -q "freedom of speech"
  lexrag search -q "impeachment" -k 10`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of passages (default from config)")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	st, err := newStore()
	if err != nil {
		return err
	}
	if err := st.Ready(ctx); err != nil {
		return err
	}

	limit := cfg.Retrieve.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	providers := usecase.NewProviderCache(newEmbedderFactory(), nil)
	queryUC := usecase.NewQueryUseCase(providers, st, nil, limit, false, GetLogger())

	results, err := queryUC.SearchNearest(ctx, searchQuery)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println(usecase.NoResultsNotice)
		return nil
	}

	fmt.Printf("Found %d passages for: %s\n\n", len(results), searchQuery)
	for i, r := range results {
		fmt.Printf("[%d] (score: %.4f)\n", i+1, r.Score)
		fmt.Println(usecase.FormatPassageHeader(r.Passage))
		fmt.Println(r.Passage.Content)
		fmt.Println()
	}

	return nil
}
