// Package cli implements the flowsketch command-line interface.
//
// # Commands
//
//   - generate: Draft a flowchart from a description
//   - repair: Validate and repair flowchart JSON from any source
//   - layout: Size and position a flowchart
//   - export: Render a flowchart as SVG, PNG, PDF, DOT or layout JSON
//   - inspect: Browse a flowchart interactively in the terminal
//   - serve: Run the HTTP API
//   - cache: Manage the layout cache
//
// # Configuration
//
// Every command reads the layered configuration of internal/config; the
// flags a command declares override the matching config keys. --config
// names an explicit file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Status
// lines go to stderr so command output can be piped.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Laid out 6 nodes (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
