package logging

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// Debug enables debug level output
	Debug bool

	// JSON switches from the human-readable text format to JSON lines
	JSON bool

	// Output defaults to os.Stderr. Stdout is reserved for the stdio transport.
	Output io.Writer
}

// New returns a slog.Logger backed by a charmbracelet/log handler.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := charmlog.InfoLevel
	if opts.Debug {
		level = charmlog.DebugLevel
	}

	formatter := charmlog.TextFormatter
	if opts.JSON {
		formatter = charmlog.JSONFormatter
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		Formatter:       formatter,
		Prefix:          "aligo-sms-mcp",
	})
	return slog.New(handler)
}
