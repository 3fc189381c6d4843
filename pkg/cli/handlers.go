package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/mockwire/pkg/cli/internal/output"
	"github.com/getmockd/mockwire/pkg/handler"
)

// HandlerOutput describes one handler in JSON output.
type HandlerOutput struct {
	Kind        string `json:"kind"`
	ID          string `json:"id,omitempty"`
	Header      string `json:"header"`
	Declaration string `json:"declaration,omitempty"`
}

var handlersSources sourceFlags

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List the handlers of a source in priority order",
	Example: `  mockwire handlers -c mocks.yaml
  mockwire handlers --openapi petstore.yaml --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handlers, err := handlersSources.load()
		if err != nil {
			return err
		}

		list := make([]HandlerOutput, len(handlers))
		for i, h := range handlers {
			info := h.Info()
			list[i] = HandlerOutput{
				Kind:        string(info.Kind),
				ID:          info.ID,
				Header:      info.Header,
				Declaration: info.CallFrame,
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return output.JSON(w, list)
		}
		if len(list) == 0 {
			output.Warn(cmd.ErrOrStderr(), "the source defines no handlers")
			return nil
		}

		upper := cases.Upper(language.English)
		for _, kind := range []handler.Kind{handler.KindRest, handler.KindGraphQL} {
			tw := output.Table(w)
			count := 0
			for _, h := range list {
				if h.Kind != string(kind) {
					continue
				}
				if count == 0 {
					fmt.Fprintf(w, "%s handlers:\n", upper.String(string(kind)))
					fmt.Fprintln(tw, "  ID\tHANDLER\tDECLARATION")
				}
				count++
				id := h.ID
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", id, h.Header, h.Declaration)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if count > 0 {
				fmt.Fprintln(w)
			}
		}
		return nil
	},
}

func init() {
	handlersSources.register(handlersCmd)
	rootCmd.AddCommand(handlersCmd)
}
