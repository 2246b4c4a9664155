package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// elapsedRound is the rounding unit for displayed durations.
const elapsedRound = 100 * time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSummary outputs the crawl summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounters(&sb, summary)
	w.writeFrontier(&sb, &summary.Frontier)
	w.writeFooter(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// WriteStatus outputs the frontier status in human-readable format.
func (w *SimpleWriter) WriteStatus(status *Status) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        FRONTIER STATUS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Database:  %s\n", status.Database))
	sb.WriteString(fmt.Sprintf("Read At:   %s\n", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")

	w.writeFrontier(&sb, status)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed:       %s\n", summary.Seed))
	sb.WriteString(fmt.Sprintf("Database:   %s\n", summary.Database))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", summary.Elapsed.Round(elapsedRound)))

	if summary.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:     ABORTED - %s\n", summary.Error))
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounters writes the run counter section.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Fetched:    %d\n", summary.Fetched))
	sb.WriteString(fmt.Sprintf("  Failed:     %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("  Skipped:    %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("  Discovered: %d new URLs\n", summary.Discovered))

	if w.verbose {
		sb.WriteString(fmt.Sprintf("  Processed:  %d total\n", summary.Processed()))
	}

	sb.WriteString("\n")
}

// writeFrontier writes the frontier state section.
func (w *SimpleWriter) writeFrontier(sb *strings.Builder, status *Status) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FRONTIER\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total:    %d\n", status.Total))
	sb.WriteString(fmt.Sprintf("  Visited:  %d\n", status.Visited))
	sb.WriteString(fmt.Sprintf("  Pending:  %d\n", status.Pending))
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if summary.Resumable() {
		sb.WriteString("Pending URLs remain. Run `onioncrawl resume` to continue.\n")
	} else {
		sb.WriteString("Frontier exhausted. Nothing left to crawl.\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
