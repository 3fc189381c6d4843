package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/config"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/openapi"
)

// errNoSource is returned when a command has neither --config nor --openapi.
var errNoSource = errors.New("no handler source: use --config or --openapi")

// sourceFlags selects where a command reads its handlers from.
type sourceFlags struct {
	configPath  string
	openapiPath string
	baseURL     string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.configPath, "config", "c", "", "Handler definitions file (YAML)")
	cmd.Flags().StringVar(&s.openapiPath, "openapi", "", "OpenAPI 3 document to generate handlers from")
	cmd.Flags().StringVar(&s.baseURL, "base-url", "", "Base URL prefixed to OpenAPI paths")
}

// load returns the handlers of every selected source. Definitions come
// before OpenAPI handlers so hand-written mocks take priority.
func (s *sourceFlags) load() ([]handler.Handler, error) {
	if s.configPath == "" && s.openapiPath == "" {
		return nil, errNoSource
	}

	var handlers []handler.Handler
	if s.configPath != "" {
		hs, err := s.loadConfig()
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, hs...)
	}
	if s.openapiPath != "" {
		var opts []openapi.Option
		if s.baseURL != "" {
			opts = append(opts, openapi.WithBaseURL(s.baseURL))
		}
		hs, err := openapi.Load(s.openapiPath, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", s.openapiPath, err)
		}
		handlers = append(handlers, hs...)
	}
	return handlers, nil
}

func (s *sourceFlags) loadConfig() ([]handler.Handler, error) {
	defs, err := config.Load(s.configPath)
	if err != nil {
		return nil, err
	}
	return config.Build(defs)
}
