package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// createTestSummary creates a summary with sample data for testing.
func createTestSummary() *Summary {
	return &Summary{
		Seed:       "http://testservice.onion/",
		Database:   "/tmp/onioncrawl",
		StartedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Elapsed:    42 * time.Second,
		Fetched:    10,
		Failed:     2,
		Discovered: 25,
		Skipped:    3,
		Frontier: Status{
			Database: "/tmp/onioncrawl",
			Total:    26,
			Visited:  10,
			Pending:  16,
		},
	}
}

// createTestStatus creates a frontier status with sample data for testing.
func createTestStatus() *Status {
	return &Status{
		Database:    "/tmp/onioncrawl",
		Total:       26,
		Visited:     10,
		Pending:     16,
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

// TestSummary_Processed tests the processed counter helper.
func TestSummary_Processed(t *testing.T) {
	t.Parallel()

	s := createTestSummary()
	if got, want := s.Processed(), 15; got != want {
		t.Errorf("Processed() = %d, want %d", got, want)
	}
}

// TestSummary_Resumable tests pending work detection.
func TestSummary_Resumable(t *testing.T) {
	t.Parallel()

	s := createTestSummary()
	if !s.Resumable() {
		t.Error("expected summary with pending URLs to be resumable")
	}

	s.Frontier.Pending = 0
	if s.Resumable() {
		t.Error("expected summary without pending URLs to not be resumable")
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL SUMMARY") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "http://testservice.onion/") {
			t.Error("expected output to contain seed URL")
		}
	})

	t.Run("writes page counters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Fetched:    10") {
			t.Error("expected output to contain fetched count")
		}
		if !strings.Contains(output, "Failed:     2") {
			t.Error("expected output to contain failed count")
		}
	})

	t.Run("writes frontier section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FRONTIER") {
			t.Error("expected output to contain frontier section")
		}
		if !strings.Contains(output, "Pending:  16") {
			t.Error("expected output to contain pending count")
		}
	})

	t.Run("mentions resume when pending URLs remain", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "onioncrawl resume") {
			t.Error("expected output to mention resume command")
		}
	})

	t.Run("reports exhausted frontier", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		summary := createTestSummary()
		summary.Frontier.Pending = 0

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Frontier exhausted") {
			t.Error("expected output to report exhausted frontier")
		}
	})

	t.Run("reports aborted run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		summary := createTestSummary()
		summary.Error = "frontier store unavailable"

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "ABORTED - frontier store unavailable") {
			t.Error("expected output to contain abort status")
		}
	})

	t.Run("verbose adds processed total", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Processed:  15 total") {
			t.Error("expected verbose output to contain processed total")
		}
	})

	t.Run("writes frontier status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.WriteStatus(createTestStatus())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "FRONTIER STATUS") {
			t.Error("expected output to contain status header")
		}
		if !strings.Contains(output, "Total:    26") {
			t.Error("expected output to contain total count")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid summary JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Summary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Seed != "http://testservice.onion/" {
			t.Errorf("seed = %q, want %q", decoded.Seed, "http://testservice.onion/")
		}
		if decoded.Frontier.Pending != 16 {
			t.Errorf("frontier pending = %d, want 16", decoded.Frontier.Pending)
		}
	})

	t.Run("writes valid status JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.WriteStatus(createTestStatus())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Status
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Total != 26 {
			t.Errorf("total = %d, want 26", decoded.Total)
		}
	})

	t.Run("compact output has no indentation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.WriteStatus(createTestStatus())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(strings.TrimRight(buf.String(), "\n"), "\n") {
			t.Error("compact output should be a single line")
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.WriteStatus(createTestStatus())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("pretty printed output should be indented")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Crawl Summary") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "## Pages") {
			t.Error("expected output to contain pages section")
		}
		if !strings.Contains(output, "| Seed") {
			t.Error("expected output to contain property table")
		}
	})

	t.Run("includes outcome pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected output to contain mermaid chart")
		}
	})

	t.Run("omits pie chart when nothing was processed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		summary := createTestSummary()
		summary.Fetched = 0
		summary.Failed = 0
		summary.Skipped = 0

		_, err := w.WriteSummary(summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "```mermaid") {
			t.Error("expected no mermaid chart for empty run")
		}
	})

	t.Run("writes status markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.WriteStatus(createTestStatus())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Frontier Status") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "| Pending") {
			t.Error("expected output to contain pending row")
		}
	})
}

// errorWriter always fails, for testing error propagation.
type errorWriter struct{}

func (errorWriter) WriteSummary(*Summary) (int, error) {
	return 0, errors.New("write failed")
}

func (errorWriter) WriteStatus(*Status) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests the fan-out writer.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		_, err := mw.WriteSummary(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if buf1.Len() == 0 {
			t.Error("expected first writer to receive output")
		}
		if buf2.Len() == 0 {
			t.Error("expected second writer to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(errorWriter{}, NewSimpleWriter(&buf))

		_, err := mw.WriteSummary(createTestSummary())
		if err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped after error")
		}
	})
}
