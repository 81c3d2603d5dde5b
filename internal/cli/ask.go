package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lexrag/internal/domain"
	"lexrag/internal/usecase"
)

var (
	askQuery       string
	askLimit       int
	askNoRerank    bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the constitution",
	Long: `Ask retrieves the most relevant constitution passages and composes a
grounded answer. With -q it answers once and exits; without it an
interactive session starts (type 'exit' to leave).

Examples:
  lexrag ask -q "What does Article 8 guarantee?"
  lexrag ask -q "How is the president elected?" -k 8
  lexrag ask --no-rerank`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "one-shot query (omit for interactive mode)")
	askCmd.Flags().IntVarP(&askLimit, "limit", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askNoRerank, "no-rerank", false, "skip cross-encoder reranking")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context with the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	log := GetLogger()
	ctx := cmd.Context()

	st, err := newStore()
	if err != nil {
		return err
	}
	if err := st.Ready(ctx); err != nil {
		return err
	}

	gen, err := newGenerator()
	if err != nil {
		return err
	}

	limit := cfg.Retrieve.Limit
	if askLimit > 0 {
		limit = askLimit
	}
	doRerank := cfg.Rerank.Enabled && !askNoRerank

	providers := usecase.NewProviderCache(newEmbedderFactory(), newRerankerFactory())
	queryUC := usecase.NewQueryUseCase(providers, st, gen, limit, doRerank, log)

	if askQuery != "" {
		return askOnce(ctx, queryUC, askQuery)
	}

	// Interactive session: a failed query is reported and the loop goes on.
	fmt.Println("Enter your question about the ROC Constitution (or type 'exit' to quit):")
	fmt.Println(strings.Repeat("-", 60))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "exit", "quit", "q":
			fmt.Println("Goodbye!")
			return nil
		}
		if err := askOnce(ctx, queryUC, query); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func askOnce(ctx context.Context, uc *usecase.QueryUseCase, query string) error {
	fmt.Print("\nQuerying...\n\n")

	answer, err := uc.Ask(ctx, query)
	if err != nil {
		return err
	}

	divider := strings.Repeat("-", 60)
	fmt.Println(divider)
	switch answer.Outcome {
	case domain.OutcomeNoResults:
		fmt.Println(answer.Notice)
	case domain.OutcomeContextOnly:
		fmt.Println(answer.Notice)
		fmt.Println()
		fmt.Println(answer.Context)
	default:
		fmt.Println(answer.Text)
		if askShowContext {
			fmt.Println()
			fmt.Println(answer.Context)
		}
	}
	fmt.Println(divider)
	return nil
}
