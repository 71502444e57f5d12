// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-traffic/internal/reporter"
	"github.com/naka-gawa/github-traffic/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "github-traffic",
	Short: "A CLI tool to aggregate GitHub repository traffic statistics.",
	Long: `github-traffic is a CLI tool that fetches views, clones, referrers,
and content paths for every repository visible to a GitHub token, and
prints aggregated reports per repository, per day, or per traffic source.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("token", "", "GitHub personal access token (defaults to GITHUB_TOKEN)")
	rootCmd.PersistentFlags().String("ignore", "", "Comma separated list of repository names to skip")
	rootCmd.PersistentFlags().String("include", "", "Comma separated list of repository names to exclusively include")
	rootCmd.PersistentFlags().String("output", "table", "Output format: table or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger builds the logger for one command run. Debug-level messages
// reach standard error only when --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.FatalLevel)
	}
	return logger
}

// resolveToken returns the token from --token, falling back to the
// GITHUB_TOKEN environment variable. A .env file in the working
// directory is honored if present. An empty result is a usage error;
// no HTTP request is issued without a token.
func resolveToken(cmd *cobra.Command) (string, error) {
	token, _ := cmd.InheritedFlags().GetString("token")
	if token != "" {
		return token, nil
	}
	_ = godotenv.Load()
	if token = os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("a GitHub token is required: pass --token or set GITHUB_TOKEN")
}

// buildFilter parses the --ignore and --include flags.
func buildFilter(cmd *cobra.Command) usecase.Filter {
	ignore, _ := cmd.InheritedFlags().GetString("ignore")
	include, _ := cmd.InheritedFlags().GetString("include")
	return usecase.NewFilter(splitNames(ignore), splitNames(include))
}

// newReporter parses the --output flag into a stdout reporter.
func newReporter(cmd *cobra.Command) (*reporter.Reporter, error) {
	name, _ := cmd.InheritedFlags().GetString("output")
	format, ok := reporter.ParseFormat(name)
	if !ok {
		return nil, fmt.Errorf("invalid --output format %q: expected table or json", name)
	}
	return reporter.New(os.Stdout, format), nil
}

func splitNames(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fail prints a single error message to standard error and terminates
// with a non-zero exit code.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
