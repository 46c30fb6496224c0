package main

import (
	"fmt"

	"parcelsales/internal/database"
	"parcelsales/internal/report"

	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Join the latest warranty deed sales onto the parcels and write the report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var mirror report.Mirror
			if a.cfg.Report.Database.Driver != "" {
				db, err := database.Open(ctx, a.cfg.Report.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.EnsureSchema(ctx); err != nil {
					return err
				}
				mirror = db
			}

			res, err := report.Build(ctx, a.cfg, a.logger, mirror)
			if err != nil {
				return err
			}
			report.RenderSummary(cmd.OutOrStdout(), res.Groups)
			fmt.Fprintf(cmd.OutOrStdout(), "Final dataset saved to: %s (%d rows)\n", res.OutputPath, len(res.Rows))
			return nil
		},
	}
}
