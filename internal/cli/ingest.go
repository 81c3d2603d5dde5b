package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"lexrag/config"
	"lexrag/internal/adapter/cache"
	"lexrag/internal/adapter/chunker"
	"lexrag/internal/adapter/fs"
	"lexrag/internal/port"
	"lexrag/internal/usecase"
)

var (
	ingestGlob     string
	ingestRecreate bool
	ingestNoCache  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk constitution JSON sources and index them",
	Long: `Ingest discovers constitution JSON files, splits them into passage
chunks, embeds the chunks with the corpus embedding model, and upserts
them into the collection. Chunk IDs are deterministic, so re-running an
ingest updates in place. Embeddings are cached locally across runs.

Examples:
  lexrag ingest ./corpus
  lexrag ingest ./corpus --glob "roc_*.json"
  lexrag ingest ./corpus --recreate   # drop and rebuild the collection`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestGlob, "glob", "", "override the source glob (default from config)")
	ingestCmd.Flags().BoolVar(&ingestRecreate, "recreate", false, "drop and recreate the collection first")
	ingestCmd.Flags().BoolVar(&ingestNoCache, "no-cache", false, "bypass the local embedding cache")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

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

	embedder, err := newEmbedderFactory()()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	if !ingestNoCache {
		if err := config.EnsureDataDir(path); err != nil {
			return fmt.Errorf("failed to create .lexrag directory: %w", err)
		}
		embedCache, err := cache.OpenEmbedCache(config.EmbedCachePath(path))
		if err != nil {
			return fmt.Errorf("failed to open embedding cache: %w", err)
		}
		defer embedCache.Close()
		embedder = port.Embedder(cache.NewCachedEmbedder(embedder, embedCache))
	}

	includes := cfg.Ingest.Includes
	if ingestGlob != "" {
		includes = []string{ingestGlob}
	}
	walker := fs.NewWalker(includes, cfg.Ingest.Excludes)

	ingestUC := usecase.NewIngestUseCase(
		walker,
		chunker.NewConstitutionChunker(),
		embedder,
		st,
		cfg.Ingest.BatchSize,
		log,
	)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result, err := ingestUC.Ingest(ctx, path, ingestRecreate, progress)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Files processed: %d\n", result.FilesProcessed)
	fmt.Printf("  Chunks created:  %d\n", result.ChunksCreated)
	fmt.Printf("  Chunks stored:   %d\n", result.ChunksStored)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nCollection: %s\n", st.Collection())
	return nil
}
