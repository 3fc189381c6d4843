package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/cli/internal/output"
	"github.com/getmockd/mockwire/pkg/config"
)

// ValidateOutput is the JSON form of a validation result.
type ValidateOutput struct {
	Valid    bool     `json:"valid"`
	Sources  []string `json:"sources,omitempty"`
	Handlers int      `json:"handlers"`
	Errors   []string `json:"errors,omitempty"`
}

var validateConfig string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a handler definitions file without serving it",
	Long: `Validate a handler definitions file without serving it.

This command checks:
  - YAML syntax
  - Schema validation (known fields, valid values)
  - Includes (files exist, no nested includes)
  - Entries (one handler kind, valid patterns and when expressions)`,
	Example: `  mockwire validate -c mocks.yaml
  mockwire validate -c mocks.yaml --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := ValidateOutput{Valid: true}

		defs, err := config.Load(validateConfig)
		if err == nil {
			out.Sources = defs.Sources
			var handlers int
			for _, e := range defs.Handlers {
				if _, buildErr := config.BuildEntry(&e); buildErr != nil {
					out.Errors = append(out.Errors, buildErr.Error())
					continue
				}
				handlers++
			}
			out.Handlers = handlers
		} else {
			out.Errors = validationErrors(err)
		}
		out.Valid = len(out.Errors) == 0

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := output.JSON(w, out); err != nil {
				return err
			}
		} else if out.Valid {
			fmt.Fprintf(w, "Configuration is valid: %d handler(s) from %d file(s).\n", out.Handlers, len(out.Sources))
		} else {
			fmt.Fprintln(w, "Validation failed:")
			for _, e := range out.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}

		if !out.Valid {
			return fmt.Errorf("validation failed with %d error(s)", len(out.Errors))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "mockwire.yaml", "Handler definitions file (YAML)")
	rootCmd.AddCommand(validateCmd)
}

// validationErrors lists schema violations one per line.
func validationErrors(err error) []string {
	var schemaErr *config.SchemaError
	if !errors.As(err, &schemaErr) {
		return []string{err.Error()}
	}
	msgs := make([]string, len(schemaErr.Violations))
	for i, v := range schemaErr.Violations {
		msgs[i] = v.String()
		if schemaErr.Source != "" {
			msgs[i] = schemaErr.Source + ": " + msgs[i]
		}
	}
	return msgs
}
