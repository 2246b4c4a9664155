package report

import (
	"time"
)

// Summary holds the outcome of a finished crawl run.
// It combines the engine's run counters with the frontier state
// at the end of the run.
type Summary struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Database is the directory holding the frontier database.
	Database string `json:"database"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Fetched is the number of pages fetched and processed successfully.
	Fetched int `json:"fetched"`

	// Failed is the number of pages whose fetch failed.
	// Failed pages remain unvisited and are retried on resume.
	Failed int `json:"failed"`

	// Discovered is the number of new URLs added to the frontier.
	Discovered int `json:"discovered"`

	// Skipped is the number of dequeued URLs skipped as already visited.
	Skipped int `json:"skipped"`

	// Frontier is the frontier state after the run.
	Frontier Status `json:"frontier"`

	// Error holds a terminal error message when the run aborted early.
	// Empty when the run completed normally.
	Error string `json:"error,omitempty"`
}

// Processed returns the total number of URLs the run dequeued.
func (s *Summary) Processed() int {
	return s.Fetched + s.Failed + s.Skipped
}

// Resumable reports whether the frontier still holds pending work.
func (s *Summary) Resumable() bool {
	return s.Frontier.Pending > 0
}

// Status describes the frontier database state.
// It is the payload of the status subcommand and the frontier
// section of a crawl summary.
type Status struct {
	// Database is the directory holding the frontier database.
	Database string `json:"database"`

	// Total is the number of URLs ever recorded.
	Total int `json:"total"`

	// Visited is the number of URLs fetched at least once.
	Visited int `json:"visited"`

	// Pending is the number of URLs discovered but not yet visited.
	Pending int `json:"pending"`

	// GeneratedAt is when the status was read.
	GeneratedAt time.Time `json:"generated_at"`
}
