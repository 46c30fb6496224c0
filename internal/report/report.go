package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"parcelsales/internal/config"
	"parcelsales/internal/parcels"
	"parcelsales/internal/sink"
	"parcelsales/internal/types"

	"go.uber.org/zap"
)

const (
	ColRatio      = "sale_to_land_value_ratio"
	ColOutOfState = "out_of_state_owner"
	ColSaleYear   = "sale_year"

	// collisionSuffix marks sale columns whose name is already a parcel column.
	collisionSuffix = "_sale"
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/06",
}

// Mirror receives the finished rows, e.g. a database table.
type Mirror interface {
	ReplaceReport(ctx context.Context, rows []types.ReportRow) error
}

// Result describes a written report.
type Result struct {
	OutputPath string
	Rows       []types.ReportRow
	Groups     []GroupSummary
}

// candidate is a sales file row before filtering.
type candidate struct {
	sale    types.Sale
	group   string
	soldAt  time.Time
	priceOK bool
}

// Build joins each parcel with its latest qualifying sale and writes the
// report CSV. Any stage failing aborts the build before the output is
// touched. mirror may be nil.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, mirror Mirror) (Result, error) {
	paths := parcels.Paths(cfg.Parcels)
	ds, err := parcels.Load(paths)
	if err != nil {
		return Result{}, err
	}
	logger.Info("loaded parcels", zap.Int("files", len(paths)), zap.Int("rows", len(ds.Parcels)))

	var sales []candidate
	for _, g := range cfg.Crawl.Groups {
		path := cfg.Crawl.SalesPath(g)
		rows, err := loadSales(path, g)
		if err != nil {
			return Result{}, err
		}
		logger.Info("loaded sales", zap.String("group", g), zap.Int("rows", len(rows)))
		sales = append(sales, rows...)
	}

	latest := latestByParcel(sales, cfg.Report.DeedPrefix)
	logger.Info("filtered sales", zap.String("deed_prefix", cfg.Report.DeedPrefix), zap.Int("parcels", len(latest)))

	rows := join(ds.Parcels, latest, cfg.Parcels.LandValueColumn, cfg.Report.HomeState)
	logger.Info("joined report", zap.Int("rows", len(rows)))

	if err := Write(cfg.Report.OutputPath, ds.Header, rows); err != nil {
		return Result{}, err
	}
	logger.Info("report saved", zap.String("path", cfg.Report.OutputPath))

	if mirror != nil {
		if err := mirror.ReplaceReport(ctx, rows); err != nil {
			return Result{}, fmt.Errorf("mirror report: %w", err)
		}
		logger.Info("report mirrored", zap.Int("rows", len(rows)))
	}

	return Result{
		OutputPath: cfg.Report.OutputPath,
		Rows:       rows,
		Groups:     Summarize(cfg.Crawl.Groups, rows),
	}, nil
}

// loadSales reads one group's sales file. The file must exist.
func loadSales(path, group string) ([]candidate, error) {
	_, records, err := parcels.ReadRecords(path)
	if err != nil {
		return nil, fmt.Errorf("sales for %s: %w", group, err)
	}

	out := make([]candidate, 0, len(records))
	for _, r := range records {
		price, priceOK := parcels.ParseNumber(r["sold_price"])
		acres, _ := parcels.ParseNumber(r["acre_area"])
		out = append(out, candidate{
			sale: types.Sale{
				ParcelID:   strings.TrimSpace(r[types.ColParcelID]),
				SoldDate:   r["sold_date"],
				SoldPrice:  price,
				DeedType:   r["deed_type"],
				Acreage:    acres,
				HasHouse:   sink.ParseBool(r["has_house"]),
				OwnerState: r["owner_state"],
			},
			group:   group,
			soldAt:  ParseDate(r["sold_date"]),
			priceOK: priceOK,
		})
	}
	return out, nil
}

// ParseDate returns the zero time for anything it cannot read.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// latestByParcel keeps, per parcel, the latest sale whose deed type starts
// with prefix. A dated sale beats an undated one; on equal dates the later
// row wins.
func latestByParcel(sales []candidate, prefix string) map[string]candidate {
	latest := make(map[string]candidate)
	for _, c := range sales {
		if !strings.HasPrefix(c.sale.DeedType, prefix) {
			continue
		}
		best, ok := latest[c.sale.ParcelID]
		switch {
		case !ok:
		case c.soldAt.IsZero() && !best.soldAt.IsZero():
			continue
		case !c.soldAt.IsZero() && c.soldAt.Before(best.soldAt):
			continue
		}
		latest[c.sale.ParcelID] = c
	}
	return latest
}

// join pairs parcels with their sale, in parcel order. Parcels without a
// sale are dropped.
func join(ps []types.Parcel, latest map[string]candidate, landValueCol, homeState string) []types.ReportRow {
	var rows []types.ReportRow
	for _, p := range ps {
		c, ok := latest[p.ID]
		if !ok {
			continue
		}
		row := types.ReportRow{
			Parcel:     p,
			Sale:       c.sale,
			SaleGroup:  c.group,
			SoldAt:     c.soldAt,
			OutOfState: strings.ToUpper(strings.TrimSpace(c.sale.OwnerState)) != homeState,
		}
		row.LandValue, row.HasLandValue = parcels.ParseNumber(p.Attrs[landValueCol])
		if row.HasLandValue && row.LandValue != 0 && c.priceOK {
			row.Ratio = c.sale.SoldPrice / row.LandValue
			row.HasRatio = true
		}
		rows = append(rows, row)
	}
	return rows
}

// Header is the parcel header followed by the sale and derived columns.
func Header(parcelHeader []string) []string {
	taken := make(map[string]bool, len(parcelHeader))
	for _, h := range parcelHeader {
		taken[h] = true
	}
	header := append([]string(nil), parcelHeader...)
	for _, h := range saleColumns() {
		if taken[h] {
			h += collisionSuffix
		}
		header = append(header, h)
	}
	return append(header, ColRatio, ColOutOfState, ColSaleYear)
}

func saleColumns() []string {
	cols := append([]string(nil), types.SalesHeader[1:]...)
	return append(cols, types.ColGroup)
}

func record(parcelHeader []string, r types.ReportRow) []string {
	out := make([]string, 0, len(parcelHeader)+len(types.SalesHeader)+3)
	for _, h := range parcelHeader {
		out = append(out, r.Parcel.Attrs[h])
	}

	soldDate := ""
	if !r.SoldAt.IsZero() {
		soldDate = r.SoldAt.Format(time.DateOnly)
	}
	out = append(out,
		soldDate,
		sink.FormatFloat(r.Sale.SoldPrice),
		r.Sale.DeedType,
		sink.FormatFloat(r.Sale.Acreage),
		sink.FormatBool(r.Sale.HasHouse),
		r.Sale.OwnerState,
		r.SaleGroup,
	)

	ratio := ""
	if r.HasRatio {
		ratio = strconv.FormatFloat(r.Ratio, 'f', -1, 64)
	}
	year := ""
	if y := r.SaleYear(); y != 0 {
		year = strconv.Itoa(y)
	}
	return append(out, ratio, sink.FormatBool(r.OutOfState), year)
}

// Write replaces path with the report. Readers see either the old file or
// the complete new one.
func Write(path string, parcelHeader []string, rows []types.ReportRow) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Header(parcelHeader)); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write(record(parcelHeader, r)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}
