package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/irlogic/irlogic-core/internal/infrastructure/config"
)

// serviceName tags every log line so aggregated logs from the daemon,
// broker and receiver bridges stay separable.
const serviceName = "irlogic"

// Logger is slog with the daemon's default fields attached. Safe for
// concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of config.yaml. Format
// "text" is for watching a terminal during development; anything else
// gets JSON. Every line carries service and version fields.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

func newHandler(cfg config.LoggingConfig) slog.Handler {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying extra default attributes,
// typically a component tag:
//
//	treeLog := log.With("component", "keymap")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the bootstrap logger used before config.yaml is loaded:
// JSON to stdout at info level, version "dev".
func Default() *Logger {
	return New(config.LoggingConfig{}, "dev")
}
