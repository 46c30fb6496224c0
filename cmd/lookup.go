package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"parcelsales/internal/database"
	"parcelsales/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <parcel-id>",
		Short: "Show the stored report row for a parcel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Report.Database.Driver == "" {
				return errors.New("lookup needs report.database.driver to be set")
			}
			ctx := cmd.Context()
			db, err := database.Open(ctx, a.cfg.Report.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			row, err := db.QueryByParcel(ctx, args[0])
			if err != nil {
				return err
			}
			if row == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No report row found for parcel: %s\n", args[0])
				return nil
			}
			renderReportRow(cmd.OutOrStdout(), *row, a.cfg.Report.HomeState)
			return nil
		},
	}
}

func renderReportRow(w io.Writer, r types.ReportRow, homeState string) {
	p := message.NewPrinter(language.English)

	soldDate := "unknown"
	if !r.SoldAt.IsZero() {
		soldDate = r.SoldAt.Format("01/02/2006")
	}
	ratio := "n/a"
	if r.HasRatio {
		ratio = fmt.Sprintf("%.2f", r.Ratio)
	}
	land := "n/a"
	if r.HasLandValue {
		land = p.Sprintf("$%.0f", r.LandValue)
	}
	stateTag := fmt.Sprintf(" %s[%s]%s", colorGreen, homeState, colorReset)
	if r.OutOfState {
		stateTag = fmt.Sprintf(" %s[Out of state]%s", colorRed, colorReset)
	}
	house := "No"
	if r.Sale.HasHouse {
		house = "Yes"
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Parcel            : %s\n", r.Parcel.ID)
	fmt.Fprintf(w, "S-T-R             : %s\n", r.Parcel.Group)
	fmt.Fprintf(w, "Acreage           : %.2f\n", r.Sale.Acreage)
	fmt.Fprintf(w, "Structure         : %s\n", house)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Last WD Sale      : %s\n", soldDate)
	fmt.Fprint(w, p.Sprintf("Sale Price        : $%.0f\n", r.Sale.SoldPrice))
	fmt.Fprintf(w, "Deed Type         : %s\n", r.Sale.DeedType)
	fmt.Fprintf(w, "Land Value        : %s\n", land)
	fmt.Fprintf(w, "Price / Land      : %s\n", ratio)
	fmt.Fprintf(w, "Owner State       : %s%s\n", r.Sale.OwnerState, stateTag)
	fmt.Fprintln(w, strings.Repeat("-", 80))
}
