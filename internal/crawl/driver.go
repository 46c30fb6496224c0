package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"parcelsales/internal/config"
	"parcelsales/internal/fetch"
	"parcelsales/internal/limiter"
	"parcelsales/internal/progress"
	"parcelsales/internal/progressbar"
	"parcelsales/internal/sink"
	"parcelsales/internal/types"

	"go.uber.org/zap"
)

// Parser turns a fetched parcel page into owner facts and sales.
type Parser interface {
	Parse(markup []byte, parcelID string, acreage float64) (types.Page, error)
}

// Bar receives one tick per eligible parcel.
type Bar interface {
	Add(n int)
	Finish()
}

// Stats counts what happened to the eligible parcels of one group.
type Stats struct {
	Eligible  int
	Skipped   int // already in the progress set
	Fetched   int
	Failed    int
	WithSales int
	Rows      int
}

// Driver crawls one group at a time, strictly sequentially.
type Driver struct {
	cfg     config.CrawlConfig
	fetcher fetch.Fetcher
	parser  Parser
	limiter limiter.RateLimiter
	logger  *zap.Logger
	newBar  func(desc string, total int) Bar
}

// Option configures a Driver.
type Option func(*Driver)

// WithLimiter replaces the interval limiter built from the config.
func WithLimiter(l limiter.RateLimiter) Option {
	return func(d *Driver) { d.limiter = l }
}

// WithProgressBar replaces the stderr progress bar.
func WithProgressBar(fn func(desc string, total int) Bar) Option {
	return func(d *Driver) { d.newBar = fn }
}

// New creates a Driver that paces requests by cfg.RequestInterval and draws
// its progress on stderr.
func New(cfg config.CrawlConfig, fetcher fetch.Fetcher, parser Parser, logger *zap.Logger, opts ...Option) *Driver {
	d := &Driver{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		limiter: limiter.Interval(cfg.RequestInterval()),
		logger:  logger,
		newBar: func(desc string, total int) Bar {
			return progressbar.New(os.Stderr, desc, total)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Eligible returns the parcels of group that have an ID and an acreage, each
// ID once, in input order.
func Eligible(parcels []types.Parcel, group string) []types.Parcel {
	seen := make(map[string]bool)
	var out []types.Parcel
	for _, p := range parcels {
		if p.Group != group || p.ID == "" || !p.HasAcreage || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// Run crawls every eligible parcel of group not yet in its progress set. A
// parcel whose fetch fails stays out of the set and is retried next run; a
// fetched parcel is marked complete whether or not it had sales. On
// cancellation the set is saved before returning the context error.
func (d *Driver) Run(ctx context.Context, group string, parcels []types.Parcel) (Stats, error) {
	logger := d.logger.With(zap.String("group", group))
	store := progress.NewStore(d.cfg.ProgressPath(group))
	salesPath := d.cfg.SalesPath(group)

	done, err := store.Load()
	if err != nil {
		return Stats{}, err
	}

	eligible := Eligible(parcels, group)
	stats := Stats{Eligible: len(eligible)}
	logger.Info("processing parcels", zap.Int("eligible", len(eligible)), zap.Int("completed", done.Len()))

	bar := d.newBar(group, len(eligible))
	defer bar.Finish()

	save := func() error {
		if err := store.Save(done); err != nil {
			return fmt.Errorf("group %s: %w", group, err)
		}
		return nil
	}
	stop := func(cause error) (Stats, error) {
		if err := save(); err != nil {
			return stats, errors.Join(cause, err)
		}
		logger.Warn("crawl interrupted", zap.Int("completed", done.Len()), zap.Error(cause))
		return stats, cause
	}

	added := 0
	for _, p := range eligible {
		if done.Has(p.ID) {
			stats.Skipped++
			bar.Add(1)
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return stop(err)
		}

		body, err := d.fetcher.Fetch(ctx, p.ID)
		if err != nil {
			if ctx.Err() != nil {
				return stop(ctx.Err())
			}
			stats.Failed++
			logger.Error("skipping parcel", zap.String("parcel", p.ID), zap.Error(err))
			bar.Add(1)
			continue
		}

		page, err := d.parser.Parse(body, p.ID, p.Acreage)
		if err != nil {
			stats.Failed++
			logger.Error("skipping unreadable page", zap.String("parcel", p.ID), zap.Error(err))
			bar.Add(1)
			continue
		}

		if len(page.Sales) > 0 {
			if err := sink.Append(page.Sales, salesPath); err != nil {
				return stop(fmt.Errorf("append sales for %s: %w", p.ID, err))
			}
			stats.WithSales++
			stats.Rows += len(page.Sales)
		}
		logger.Debug("parcel done", zap.String("parcel", p.ID), zap.Int("sales", len(page.Sales)))

		done.Add(p.ID)
		stats.Fetched++
		added++
		if added%d.cfg.FlushEvery == 0 {
			if err := save(); err != nil {
				return stats, err
			}
		}
		bar.Add(1)
	}

	if err := save(); err != nil {
		return stats, err
	}
	// a finished group always has a sales file, even with no sales
	if err := sink.EnsureHeader(salesPath); err != nil {
		return stats, fmt.Errorf("group %s: %w", group, err)
	}
	logger.Info("finished group",
		zap.Int("fetched", stats.Fetched),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("rows", stats.Rows))
	return stats, nil
}

// RunAll crawls each group in order and stops at the first error.
func (d *Driver) RunAll(ctx context.Context, groups []string, parcels []types.Parcel) (map[string]Stats, error) {
	all := make(map[string]Stats, len(groups))
	for _, g := range groups {
		stats, err := d.Run(ctx, g, parcels)
		all[g] = stats
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
