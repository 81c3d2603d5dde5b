package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check store readiness and corpus size",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	st, err := newStore()
	if err != nil {
		return err
	}
	if err := st.Ready(ctx); err != nil {
		return err
	}

	count, err := st.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Weaviate:   ready (%s)\n", cfg.WeaviateURL())
	fmt.Printf("Collection: %s\n", cfg.Weaviate.Collection)
	fmt.Printf("Objects:    %d\n", count)
	fmt.Printf("Embedding:  %s (%d dimensions, provider %s)\n",
		cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.Provider)
	if cfg.Rerank.Enabled {
		fmt.Printf("Reranker:   %s (provider %s)\n", cfg.Rerank.Model, cfg.Rerank.Provider)
	} else {
		fmt.Printf("Reranker:   disabled\n")
	}
	fmt.Printf("Generation: %s\n", cfg.Generation.Model)

	return nil
}
