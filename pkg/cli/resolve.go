package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/cli/internal/output"
	"github.com/getmockd/mockwire/pkg/engine"
	"github.com/getmockd/mockwire/pkg/intercept"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/requestlog"
)

// errNoMatch is returned by resolve when no handler answered the request.
var errNoMatch = errors.New("no handler matched the request")

// ResolveOutput is the JSON form of a resolved request.
type ResolveOutput struct {
	Outcome    string            `json:"outcome"`
	Handler    string            `json:"handler,omitempty"`
	HandlerID  string            `json:"handlerId,omitempty"`
	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	DelayMs    int64             `json:"delayMs,omitempty"`
}

var (
	resolveSources sourceFlags
	resolveHeaders []string
	resolveData    string
	resolveJQ      string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [METHOD] URL",
	Short: "Resolve a request against the handlers and print the response",
	Long: `Resolve a single request against the handlers and print the mocked
response. The method defaults to GET, or POST when --data is set. Relative
URLs are resolved against http://localhost.

Exits with an error when no handler answers the request.`,
	Example: `  mockwire resolve -c mocks.yaml GET http://localhost/users/1
  mockwire resolve -c mocks.yaml -H 'Authorization: Bearer t' /users/1
  mockwire resolve -c mocks.yaml -d '{"query":"query GetUser { user { id } }"}' /graphql
  mockwire resolve --openapi petstore.yaml --jq .body GET /pets`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args, resolveHeaders, resolveData)
		if err != nil {
			return err
		}

		handlers, err := resolveSources.load()
		if err != nil {
			return err
		}

		mocks := intercept.New(handlers, intercept.WithLogger(newLogger(cmd)))
		payload, err := mocks.Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := newResolveOutput(payload)
		if out.Outcome == requestlog.OutcomeBypass {
			return fmt.Errorf("%w: %s", errNoMatch, req)
		}
		if out.Handler != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Matched: %s\n", out.Handler)
		}

		if jsonOutput || resolveJQ != "" {
			result, err := applyFilter(out, resolveJQ)
			if err != nil {
				return err
			}
			return output.JSON(cmd.OutOrStdout(), result)
		}
		return printResponse(cmd.OutOrStdout(), payload)
	},
}

func init() {
	resolveSources.register(resolveCmd)
	resolveCmd.Flags().StringArrayVarP(&resolveHeaders, "header", "H", nil, "Request header as 'Name: value' (repeatable)")
	resolveCmd.Flags().StringVarP(&resolveData, "data", "d", "", "Request body, or @file to read it from a file")
	resolveCmd.Flags().StringVar(&resolveJQ, "jq", "", "jq expression applied to the JSON output")
	rootCmd.AddCommand(resolveCmd)
}

// buildRequest creates the request described by the command arguments.
func buildRequest(args, headers []string, data string) (*request.Request, error) {
	method, rawURL := "", args[len(args)-1]
	if len(args) == 2 {
		method = strings.ToUpper(args[0])
	}

	var body []byte
	if strings.HasPrefix(data, "@") {
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		body = b
	} else if data != "" {
		body = []byte(data)
	}
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	if strings.HasPrefix(rawURL, "/") {
		rawURL = "http://localhost" + rawURL
	}

	header := http.Header{}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", h)
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if body != nil && header.Get("Content-Type") == "" && json.Valid(body) {
		header.Set("Content-Type", "application/json")
	}

	return request.New(method, rawURL, header, body)
}

func newResolveOutput(payload *engine.Payload) ResolveOutput {
	out := ResolveOutput{Outcome: requestlog.OutcomeBypass}
	if payload.Handler != nil && payload.Response != nil {
		info := payload.Handler.Info()
		out.Handler = info.Header
		out.HandlerID = info.ID
	}

	switch {
	case payload.Passthrough():
		out.Outcome = requestlog.OutcomePassthrough
	case payload.Bypassed():
	default:
		res := payload.Response
		out.Outcome = requestlog.OutcomeMocked
		out.Status = res.Status
		out.StatusText = res.StatusText
		out.DelayMs = res.Delay.Milliseconds()
		out.Headers = make(map[string]string, len(res.Header))
		for name, values := range res.Header {
			out.Headers[name] = strings.Join(values, ", ")
		}
		if len(res.Body) > 0 {
			var v any
			if err := json.Unmarshal(res.Body, &v); err == nil {
				out.Body = v
			} else {
				out.Body = string(res.Body)
			}
		}
	}
	return out
}

// printResponse writes the response in HTTP message form.
func printResponse(w io.Writer, payload *engine.Payload) error {
	if payload.Passthrough() {
		_, err := fmt.Fprintln(w, "passthrough: the handler asked for the real response")
		return err
	}

	res := payload.Response
	fmt.Fprintf(w, "%d %s\n", res.Status, res.StatusText)
	names := make([]string, 0, len(res.Header))
	for name := range res.Header {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, value := range res.Header[name] {
			fmt.Fprintf(w, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintln(w)
	if len(res.Body) > 0 {
		if _, err := w.Write(res.Body); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
