package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"parcelsales/internal/config"
	"parcelsales/internal/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	configPath string
	cfg        config.Config
	logger     *zap.Logger
	logCloser  io.Closer
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, closer, err := log.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.logCloser = cfg, logger, closer
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) {
	if a.logger != nil {
		a.logger.Sync()
	}
	if a.logCloser != nil {
		a.logCloser.Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "parcelsales",
		Short:             "Scrape county parcel sales and build the sales report.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath+")")

	root.AddCommand(
		newParcelsCmd(a),
		newCrawlCmd(a),
		newReportCmd(a),
		newLookupCmd(a),
		versionCmd,
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}
}
