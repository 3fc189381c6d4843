// Package logging configures log/slog for mockwire.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("mocked request", "method", "GET", "url", "http://localhost/user")
//
// Components accept a *slog.Logger through an option and fall back to
// Nop. Recorder keeps records in memory so tests can assert on handler
// diagnostics, and Tee fans a record out to several handlers.
package logging
