// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-traffic/internal/gateway"
	"github.com/naka-gawa/github-traffic/internal/usecase"
)

var referrersCmd = &cobra.Command{
	Use:   "referrers",
	Short: "Top referrers merged across all repositories",
	Long: `Fetches the top referrers of every visible repository and prints
them merged by referrer, with counts summed across repositories and
sorted by total count.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		token, err := resolveToken(cmd)
		if err != nil {
			fail(err)
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

		records, err := aggregator.CollectReferrers(ctx, buildFilter(cmd))
		if err != nil {
			fail(err)
		}
		if err := rep.Referrers(usecase.GroupReferrers(records)); err != nil {
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(referrersCmd)
}
