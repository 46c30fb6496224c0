package main

import (
	"fmt"
	"time"

	"parcelsales/internal/geo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newParcelsCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "parcels",
		Short: "Convert the parcel shapefile into chunked CSVs with centroid coordinates.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := a.cfg.Parcels
			proj, err := geo.ProjectionFor(pc.Projection)
			if err != nil {
				return err
			}

			start := time.Now()
			layer, err := geo.LoadShapefile(pc.Shapefile, proj)
			if err != nil {
				return err
			}
			a.logger.Info("loaded shapefile",
				zap.String("path", pc.Shapefile),
				zap.Int("features", len(layer.Features)),
				zap.Duration("took", time.Since(start)))

			basename := pc.ChunkBasename
			if prefix != "" {
				basename = geo.ChunkBasename(prefix, time.Now())
			}
			paths, err := geo.WriteChunks(layer, pc.ChunkDir, basename, pc.ChunkCount)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", p)
			}
			if basename != pc.ChunkBasename {
				fmt.Fprintf(cmd.OutOrStdout(), "Set parcels.chunk_basename to %q to crawl these files.\n", basename)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "dated", "", "write <prefix>_<YYYYMMDD> chunks instead of the configured basename")
	return cmd
}
