package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/config"
	"github.com/getmockd/mockwire/pkg/intercept"
)

const shutdownTimeout = 5 * time.Second

var (
	serveSources     sourceFlags
	serveAddr        string
	serveWatch       bool
	serveOnUnhandled string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the handlers over HTTP",
	Long: `Serve the handlers over HTTP until interrupted.

Requests no handler answers get a 404 JSON error. With --watch the
definitions file and its includes are reloaded when they change; a file
that fails to load keeps the previous handlers.`,
	Example: `  mockwire serve -c mocks.yaml
  mockwire serve -c mocks.yaml --addr :4280 --watch
  mockwire serve --openapi petstore.yaml --on-unhandled warn`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveWatch && serveSources.configPath == "" {
			return errors.New("--watch requires --config")
		}
		policy, err := intercept.ParseUnhandledPolicy(serveOnUnhandled)
		if err != nil {
			return err
		}

		handlers, err := serveSources.load()
		if err != nil {
			return err
		}

		log := newLogger(cmd)
		mocks := intercept.New(handlers,
			intercept.WithLogger(log),
			intercept.WithOnUnhandled(policy),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", serveAddr, err)
		}
		srv := &http.Server{
			Handler:           mocks,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()
		if serveWatch {
			go watchSources(ctx, log, mocks)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %d handler(s) on http://%s\n", len(handlers), ln.Addr())

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveSources.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:4280", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the definitions file when it changes")
	serveCmd.Flags().StringVar(&serveOnUnhandled, "on-unhandled", string(intercept.OnUnhandledWarn), "Policy for unhandled requests (bypass, warn, error)")
	rootCmd.AddCommand(serveCmd)
}

// watchSources swaps the handlers of mocks whenever the sources change.
func watchSources(ctx context.Context, log *slog.Logger, mocks *intercept.Interceptor) {
	err := config.Watch(ctx, serveSources.configPath, func(_ *config.Definitions, err error) {
		if err != nil {
			log.Error("failed to reload definitions", "path", serveSources.configPath, "error", err)
			return
		}
		handlers, err := serveSources.load()
		if err != nil {
			log.Error("failed to reload definitions", "path", serveSources.configPath, "error", err)
			return
		}
		if len(handlers) == 0 {
			log.Warn("reloaded definitions have no handlers, keeping the previous ones", "path", serveSources.configPath)
			return
		}
		mocks.ResetHandlers(handlers...)
		log.Info("reloaded definitions", "path", serveSources.configPath, "handlers", len(handlers))
	})
	if err != nil {
		log.Error("watching definitions stopped", "path", serveSources.configPath, "error", err)
	}
}
