package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragengine/internal/adapter/fs"
	"ragengine/internal/domain"
)

var indexNamespace string

var indexCmd = &cobra.Command{
	Use:   "index [directory]",
	Short: "Ingest a directory of documents into a namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := domain.ParseNamespace(indexNamespace)
		if err != nil {
			return err
		}

		chunkStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer chunkStore.Close()

		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}

		walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
		docs, err := walker.LoadDocuments(args[0])
		if err != nil {
			return fmt.Errorf("failed to load documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Println("No matching documents found.")
			return nil
		}

		bar := progressbar.NewOptions(len(docs),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
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

		indexer := buildIndexer(cfg, chunkStore, embedder)
		report := domain.IndexReport{Namespace: ns}

		// One document per request keeps the progress bar honest and a
		// single bad file from failing its neighbors' batch.
		for i, doc := range docs {
			r, err := indexer.IndexDocuments(cmd.Context(), domain.IndexRequest{
				Documents:    []domain.Document{doc},
				Namespace:    ns,
				ChunkSize:    cfg.Index.ChunkSize,
				ChunkOverlap: &cfg.Index.ChunkOverlap,
			})
			if err != nil {
				return err
			}
			report.Indexed += r.Indexed
			report.ChunksCreated += r.ChunksCreated
			report.Total++
			for _, f := range r.Failed {
				report.Failed = append(report.Failed, domain.IndexFailure{Index: i, Error: f.Error})
			}
			bar.Set(i + 1)
		}

		fmt.Printf("Indexed %d/%d documents (%d chunks) into %q\n",
			report.Indexed, report.Total, report.ChunksCreated, ns)
		for _, f := range report.Failed {
			fmt.Printf("  failed: %s: %s\n", docs[f.Index].SourceID, f.Error)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexNamespace, "namespace", "n", string(domain.NamespaceDestinations), "target namespace")
	rootCmd.AddCommand(indexCmd)
}
