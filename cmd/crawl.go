package main

import (
	"io"

	"parcelsales/internal/crawl"
	"parcelsales/internal/fetch"
	"parcelsales/internal/parcels"
	"parcelsales/internal/parse"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [groups...]",
		Short: "Fetch the sales history of every parcel in the given groups (default: all configured).",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := args
			if len(groups) == 0 {
				groups = a.cfg.Crawl.Groups
			}

			ds, err := parcels.Load(parcels.Paths(a.cfg.Parcels))
			if err != nil {
				return err
			}

			runID, err := crawl.RunID()
			if err != nil {
				return err
			}
			logger := a.logger.With(zap.String("run", runID))
			logger.Info("crawl started", zap.Strings("groups", groups), zap.Int("parcels", len(ds.Parcels)))

			f, err := fetch.New(a.cfg.Crawl, logger)
			if err != nil {
				return err
			}
			d := crawl.New(a.cfg.Crawl, f, parse.New(logger), logger)

			all, err := d.RunAll(cmd.Context(), groups, ds.Parcels)
			renderCrawlStats(cmd.OutOrStdout(), groups, all)
			return err
		},
	}
}

func renderCrawlStats(w io.Writer, groups []string, all map[string]crawl.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Group", "Eligible", "Skipped", "Fetched", "Failed", "With sales", "Rows"})
	for _, g := range groups {
		s, ok := all[g]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{g, s.Eligible, s.Skipped, s.Fetched, s.Failed, s.WithSales, s.Rows})
	}
	t.Render()
}
