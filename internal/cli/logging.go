package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/internal/config"
)

// setupLogging installs the process logger and hands it to the keyset
// package.
func setupLogging(cmd *cobra.Command, cfg config.LogConfig, debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch cfg.Format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	keyset.SetLogger(logger.With("component", "keyset"))

	logger.Debug("command started", "command", cmd.Name())
}
