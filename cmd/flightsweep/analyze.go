package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightsweep/internal/report"
	"github.com/dharmasatrya/flightsweep/internal/sweep"
)

func analyzeCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rank itineraries from the cache without calling any provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.sweep(cmd, true, outputDir)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", "", "directory for the JSON and HTML reports (default: output_dir)")
	return cmd
}

func runCmd(a *app) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search and rank in one pass, fetching what the cache lacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.sweep(cmd, false, outputDir)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", "", "directory for the JSON and HTML reports (default: output_dir)")
	return cmd
}

func (a *app) sweep(cmd *cobra.Command, offline bool, outputDir string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sc, err := a.cfg.SweepConfig()
	if err != nil {
		return err
	}

	c, store, err := a.newCollector(ctx, offline)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	orch, err := sweep.New(sc, c, a.logger, a.metrics)
	if err != nil {
		return err
	}
	res, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	r := report.Report{
		Route:       sc.Route,
		Constraints: a.cfg.Constraints,
		Result:      res,
		Offline:     offline,
	}
	if err := report.WriteConsole(out, r); err != nil {
		return err
	}
	if len(res.Itineraries) == 0 {
		return nil
	}

	if outputDir == "" {
		outputDir = a.cfg.OutputDir
	}
	jsonPath, htmlPath, err := report.WriteFiles(outputDir, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nHTML viewer: %s\nJSON results: %s\n", htmlPath, jsonPath)
	return nil
}
