package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightsweep/internal/config"
	"github.com/dharmasatrya/flightsweep/internal/metrics"
	"github.com/dharmasatrya/flightsweep/pkg/logger"
)

var version = "dev"

// app is filled in by the root command before any subcommand runs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func rootCmd() *cobra.Command {
	var (
		cfgFile string
		a       = &app{}
	)

	cmd := &cobra.Command{
		Use:   "flightsweep",
		Short: "Multi-leg flight itinerary search and scoring",
		Long: `flightsweep searches every departure date and stay length in a grid for
home -> region A -> region B -> home trips, builds itineraries from three
one-way flights or two paired round trips, and ranks them by price plus the
cost of travel time, stops and weekdays away.

Run "collect" to fill the response cache and "analyze" to rank offline.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cfgFile)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./flightsweep.yaml)")

	cmd.AddCommand(collectCmd(a))
	cmd.AddCommand(analyzeCmd(a))
	cmd.AddCommand(runCmd(a))
	cmd.AddCommand(serveCmd(a))
	cmd.AddCommand(versionCmd())

	return cmd
}

func (a *app) init(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	a.cfg = cfg
	a.logger = l
	a.metrics = metrics.New()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "flightsweep", version)
		},
	}
}
