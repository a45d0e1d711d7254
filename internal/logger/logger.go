package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/sevigo/pr-warden/internal/config"
)

// NewLogger initializes a new slog logger based on the provided configuration.
// If output is nil, stdout is used.
func NewLogger(cfg *config.Config, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
