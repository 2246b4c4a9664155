package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + summary.Seed + "`"},
			{"Database", "`" + summary.Database + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed.Round(elapsedRound).String()},
			{"Status", w.statusText(summary)},
		},
	})
	md.PlainText("")

	w.writePages(md, summary)
	w.writeFrontier(md, &summary.Frontier)
	w.writeAlert(md, summary)

	return len(md.String()), md.Build()
}

// WriteStatus outputs the frontier status in Markdown format.
func (w *MarkdownWriter) WriteStatus(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Frontier Status")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Database", "`" + status.Database + "`"},
			{"Read At", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	w.writeFrontier(md, status)

	if status.Pending > 0 {
		md.Notef("%d pending URL(s) remain. Run `onioncrawl resume` to continue.", status.Pending)
	} else {
		md.Tip("Frontier exhausted. Nothing left to crawl.")
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// statusText returns the status text based on summary state.
func (w *MarkdownWriter) statusText(summary *Summary) string {
	if summary.Error != "" {
		return "❌ Aborted - " + summary.Error
	}
	return "✅ Complete"
}

// writePages writes the run counter section with an outcome pie chart.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, summary *Summary) {
	md.H2("Pages")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Fetched", strconv.Itoa(summary.Fetched)},
			{"🔴 Failed", strconv.Itoa(summary.Failed)},
			{"⚪ Skipped", strconv.Itoa(summary.Skipped)},
			{"**Processed**", "**" + strconv.Itoa(summary.Processed()) + "**"},
		},
	})
	md.PlainText("")

	if summary.Processed() > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart for the page outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if summary.Fetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(summary.Fetched))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}
	if summary.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(summary.Skipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFrontier writes the frontier state section.
func (w *MarkdownWriter) writeFrontier(md *markdown.Markdown, status *Status) {
	md.H2("Frontier")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"State", "Count"},
		Rows: [][]string{
			{"Total", strconv.Itoa(status.Total)},
			{"Visited", strconv.Itoa(status.Visited)},
			{"Pending", strconv.Itoa(status.Pending)},
		},
	})
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on summary state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *Summary) {
	switch {
	case summary.Error != "":
		md.Cautionf("Run aborted: %s. The frontier keeps its state; resume to retry.", summary.Error)
	case summary.Resumable():
		md.Notef("%d pending URL(s) remain. Run `onioncrawl resume` to continue.", summary.Frontier.Pending)
	default:
		md.Tip("Frontier exhausted. Nothing left to crawl.")
	}
	md.PlainText("")
}
