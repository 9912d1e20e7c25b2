package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightsweep/internal/cache"
	"github.com/dharmasatrya/flightsweep/internal/collector"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
)

func collectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch every search the sweep needs into the cache",
		Long: `Enumerate the distinct one-way and round-trip searches the configured grid
needs and fetch each one exactly once. Searches already in the cache are not
fetched again, so an interrupted collect can simply be restarted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			sc, err := a.cfg.SweepConfig()
			if err != nil {
				return err
			}
			if a.cfg.Duffel.APIKey == "" {
				return errors.New("DUFFEL_API_KEY is not set")
			}

			c, store, err := a.newCollector(ctx, false)
			if err != nil {
				return err
			}
			defer a.closeStore(store)

			plan := sweep.Plan(sc)
			fmt.Fprintf(out, "Searches to run: %d\n", len(plan))

			bar := progressbar.NewOptions(len(plan),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Collecting flights...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)

			summary, err := c.Prefetch(ctx, plan, a.cfg.Collector.Workers, func(res *collector.Result) {
				if !res.Complete() {
					a.logger.Info("search incomplete",
						zap.String("search", res.Request.String()),
						zap.String("reason", res.Reason),
					)
				}
				if err := bar.Add(1); err != nil {
					a.logger.Warn("failed to update progress bar", zap.Error(err))
				}
			})
			_ = bar.Finish()
			fmt.Fprintln(out)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Collected: %s\n", summary)
			if fs, ok := store.(*cache.FileStore); ok {
				n, err := fs.Count()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cache files in %s: %d\n", fs.Dir(), n)
			}
			fmt.Fprintln(out, `Run "flightsweep analyze" to rank itineraries.`)
			return nil
		},
	}
}
