package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	logLevel   string
	logFormat  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockwire",
	Short: "mockwire resolves HTTP and GraphQL requests against mock handlers",
	Long: `mockwire matches requests against REST and GraphQL mock handlers and
builds the mocked responses.

Handlers come from a YAML definitions file (--config) or are generated from
an OpenAPI document (--openapi). Use resolve to try a single request, or
serve to answer requests over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true, // errors are printed by the caller of Execute
}

// Execute runs the root command with args.
func Execute(args []string) error {
	rootCmd.Version = currentBuild().String()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// newLogger builds the logger selected by the persistent flags. Logs go to
// stderr so stdout stays machine readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
		Output: cmd.ErrOrStderr(),
	})
}
