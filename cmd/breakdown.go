// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-traffic/internal/domain"
	"github.com/naka-gawa/github-traffic/internal/gateway"
	"github.com/naka-gawa/github-traffic/internal/usecase"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Per-day traffic totals across all repositories",
	Long: `Fetches the daily traffic of every visible repository and prints one
row per calendar day, summing counts and unique visitors across all
repositories. Days without data from any repository are omitted.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		token, err := resolveToken(cmd)
		if err != nil {
			fail(err)
		}
		names, _ := cmd.Flags().GetStringSlice("metrics")
		metrics, ok := domain.ParseMetrics(names)
		if !ok {
			fail(fmt.Errorf("invalid --metrics value: expected views and/or clones"))
		}
		rep, err := newReporter(cmd)
		if err != nil {
			fail(err)
		}

		fetcher, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fail(fmt.Errorf("failed to create GitHub gateway: %w", err))
		}
		aggregator := usecase.NewAggregator(fetcher, logger)

		data, err := aggregator.Collect(ctx, metrics, buildFilter(cmd))
		if err != nil {
			fail(err)
		}
		var rows []domain.Breakdown
		for _, metric := range metrics {
			rows = append(rows, usecase.BreakdownByDate(metric, data.Records[metric])...)
		}
		if err := rep.Breakdowns(rows); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
	breakdownCmd.Flags().StringSlice("metrics", nil, "Metrics to fetch: views, clones (default both)")
}
