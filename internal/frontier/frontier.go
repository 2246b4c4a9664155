package frontier

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the durable URL frontier backed by SQLite.
// It is the single source of truth for deduplication and resumability:
// every URL the crawler has ever observed lives here together with its
// visited flag, and the database survives process restarts so a crawl
// can be paused and resumed without refetching pages.
//
// Design decision: We use SQLite rather than an in-memory map plus a
// journal file because:
//  1. INSERT OR IGNORE gives us an atomic check-and-insert for free
//  2. Durability is handled by the database, not by hand-rolled fsync logic
//  3. The status command can inspect the frontier without the crawler running
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	// Resume and status commands set this to false so that a missing
	// frontier is reported instead of silently starting from scratch.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default frontier options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// DBFileName is the frontier database file name inside the data directory.
const DBFileName = "onioncrawl.db"

// Open opens or creates a frontier Store at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned so a resume against a missing frontier fails fast.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("frontier database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check frontier path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create frontier directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to forbid creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open frontier database: %w", err)
	}

	// SQLite only supports one writer; the crawl is bounded by network
	// latency anyway, so a single connection is not a bottleneck.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create frontier schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path to the frontier database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the frontier schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- The frontier: every URL ever discovered, keyed by its normalized form.
	-- visited only ever transitions 0 -> 1; records are never deleted.
	CREATE TABLE IF NOT EXISTS urls (
		url TEXT PRIMARY KEY,
		visited INTEGER NOT NULL DEFAULT 0,
		discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		visited_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_urls_visited ON urls(visited);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// InsertIfAbsent records a URL in the frontier if it has never been seen.
// It returns true if the URL was newly inserted, false if it already existed.
// Concurrent callers racing on the same URL see exactly one true result;
// SQLite serializes the writes and INSERT OR IGNORE makes the losers no-ops.
func (s *Store) InsertIfAbsent(ctx context.Context, url string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO urls (url, visited) VALUES (?, 0)", url)
	if err != nil {
		return false, fmt.Errorf("failed to insert url %q: %w", url, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result for %q: %w", url, err)
	}
	return rows > 0, nil
}

// MarkVisited flags a URL as visited. It is idempotent: marking an already
// visited URL, or a URL the frontier has never seen, is a no-op rather
// than an error. visited_at is set only on the first transition.
func (s *Store) MarkVisited(ctx context.Context, url string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE urls SET visited = 1, visited_at = COALESCE(visited_at, CURRENT_TIMESTAMP) WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("failed to mark %q visited: %w", url, err)
	}
	return nil
}

// IsVisited reports whether a URL has been fetched and parsed successfully.
// An unknown URL is reported as not visited.
func (s *Store) IsVisited(ctx context.Context, url string) (bool, error) {
	var visited int
	err := s.db.QueryRowContext(ctx,
		"SELECT visited FROM urls WHERE url = ?", url).Scan(&visited)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %q: %w", url, err)
	}
	return visited != 0, nil
}

// Unvisited returns all URLs that have been discovered but not yet
// successfully fetched, in discovery order. A resumed crawl seeds its
// work queue from this list.
func (s *Store) Unvisited(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT url FROM urls WHERE visited = 0 ORDER BY discovered_at, url")
	if err != nil {
		return nil, fmt.Errorf("failed to query unvisited urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan unvisited url: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// Stats summarizes the frontier for reporting.
type Stats struct {
	// Total is the number of distinct URLs ever discovered.
	Total int

	// Visited is the number of URLs successfully fetched and parsed.
	Visited int

	// Pending is the number of URLs awaiting a fetch (Total - Visited).
	Pending int
}

// Stats returns frontier counts for the status command and end-of-run summary.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(visited), 0) FROM urls").Scan(&stats.Total, &stats.Visited)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read frontier stats: %w", err)
	}
	stats.Pending = stats.Total - stats.Visited
	return stats, nil
}
