package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ragengine/internal/adapter/store"
	"ragengine/internal/domain"
)

var (
	rebuildM  int
	rebuildEf int
)

var rebuildIndexCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the vector index without taking queries down (postgres only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		chunkStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer chunkStore.Close()

		pg, ok := chunkStore.(*store.PostgresStore)
		if !ok {
			return fmt.Errorf("rebuild-index requires the postgres storage driver, got %q", cfg.Storage.Driver)
		}

		// Probe every namespace before cutting over.
		validate := func(ctx context.Context) error {
			for _, ns := range domain.Namespaces() {
				if _, err := pg.Count(ctx, ns); err != nil {
					return err
				}
			}
			return nil
		}

		if err := pg.RebuildVectorIndex(cmd.Context(), store.VectorIndexParams{
			M:              rebuildM,
			EfConstruction: rebuildEf,
		}, validate); err != nil {
			return err
		}

		logger.Info().Int("m", rebuildM).Int("ef_construction", rebuildEf).Msg("vector index rebuilt")
		return nil
	},
}

func init() {
	rebuildIndexCmd.Flags().IntVar(&rebuildM, "m", 16, "HNSW graph degree")
	rebuildIndexCmd.Flags().IntVar(&rebuildEf, "ef-construction", 64, "HNSW build-time candidate list size")
	rootCmd.AddCommand(rebuildIndexCmd)
}
