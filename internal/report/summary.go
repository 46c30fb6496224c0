package report

import (
	"fmt"
	"io"

	"parcelsales/internal/types"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// GroupSummary totals the report rows whose sale came from one group.
type GroupSummary struct {
	Group      string
	Sales      int
	OutOfState int
	WithHouse  int
	TotalPrice float64
	ratioSum   float64
	ratioCount int
}

func (g GroupSummary) AvgPrice() float64 {
	if g.Sales == 0 {
		return 0
	}
	return g.TotalPrice / float64(g.Sales)
}

// AvgRatio averages the rows that have a ratio; ok is false when none do.
func (g GroupSummary) AvgRatio() (float64, bool) {
	if g.ratioCount == 0 {
		return 0, false
	}
	return g.ratioSum / float64(g.ratioCount), true
}

// Summarize groups rows by the group of their sale, in the order of groups.
func Summarize(groups []string, rows []types.ReportRow) []GroupSummary {
	byGroup := make(map[string]*GroupSummary, len(groups))
	out := make([]GroupSummary, len(groups))
	for i, g := range groups {
		out[i].Group = g
		byGroup[g] = &out[i]
	}

	for _, r := range rows {
		s, ok := byGroup[r.SaleGroup]
		if !ok {
			continue
		}
		s.Sales++
		s.TotalPrice += r.Sale.SoldPrice
		if r.OutOfState {
			s.OutOfState++
		}
		if r.Sale.HasHouse {
			s.WithHouse++
		}
		if r.HasRatio {
			s.ratioSum += r.Ratio
			s.ratioCount++
		}
	}
	return out
}

// RenderSummary prints one line per group plus a total.
func RenderSummary(w io.Writer, groups []GroupSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Group", "Sales", "Out of state", "With house", "Avg price", "Avg price/land"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	var total, out, house int
	for _, g := range groups {
		ratio := "-"
		if r, ok := g.AvgRatio(); ok {
			ratio = fmt.Sprintf("%.2f", r)
		}
		t.AppendRow(table.Row{g.Group, g.Sales, g.OutOfState, g.WithHouse, fmt.Sprintf("%.0f", g.AvgPrice()), ratio})
		total += g.Sales
		out += g.OutOfState
		house += g.WithHouse
	}
	t.AppendFooter(table.Row{"Total", total, out, house, "", ""})
	t.Render()
}
