package frontier

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// setupTestStore creates a temporary frontier for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open frontier: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// TestOpen tests frontier opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open frontier: %v", err)
		}
		defer s.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("frontier database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false errors when database is missing", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error opening missing frontier, got nil")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		s, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create frontier: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("failed to close frontier: %v", err)
		}

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		s2, err := Open(dbDir, opts)
		if err != nil {
			t.Fatalf("failed to reopen frontier: %v", err)
		}
		defer s2.Close()
	})
}

// TestInsertIfAbsent tests the atomic check-and-insert contract.
func TestInsertIfAbsent(t *testing.T) {
	t.Parallel()

	t.Run("first insert returns true, second returns false", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()

		inserted, err := s.InsertIfAbsent(ctx, "http://test.onion/")
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if !inserted {
			t.Error("expected first insert to return true")
		}

		inserted, err = s.InsertIfAbsent(ctx, "http://test.onion/")
		if err != nil {
			t.Fatalf("second insert failed: %v", err)
		}
		if inserted {
			t.Error("expected duplicate insert to return false")
		}
	})

	t.Run("concurrent inserts of the same URL yield exactly one winner", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()

		const callers = 16
		var wg sync.WaitGroup
		results := make(chan bool, callers)

		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inserted, err := s.InsertIfAbsent(ctx, "http://race.onion/page")
				if err != nil {
					t.Errorf("insert failed: %v", err)
					return
				}
				results <- inserted
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for inserted := range results {
			if inserted {
				winners++
			}
		}
		if winners != 1 {
			t.Errorf("expected exactly 1 winner, got %d", winners)
		}
	})
}

// TestMarkVisited tests the idempotent visited transition.
func TestMarkVisited(t *testing.T) {
	t.Parallel()

	t.Run("marks an inserted URL visited", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()

		if _, err := s.InsertIfAbsent(ctx, "http://test.onion/a"); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if err := s.MarkVisited(ctx, "http://test.onion/a"); err != nil {
			t.Fatalf("mark visited failed: %v", err)
		}

		visited, err := s.IsVisited(ctx, "http://test.onion/a")
		if err != nil {
			t.Fatalf("is visited failed: %v", err)
		}
		if !visited {
			t.Error("expected URL to be visited")
		}
	})

	t.Run("marking twice is identical to marking once", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		ctx := context.Background()

		if _, err := s.InsertIfAbsent(ctx, "http://test.onion/b"); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if err := s.MarkVisited(ctx, "http://test.onion/b"); err != nil {
			t.Fatalf("first mark failed: %v", err)
		}
		if err := s.MarkVisited(ctx, "http://test.onion/b"); err != nil {
			t.Fatalf("second mark failed: %v", err)
		}

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats.Visited != 1 {
			t.Errorf("expected 1 visited record, got %d", stats.Visited)
		}
	})

	t.Run("marking an unknown URL is a no-op", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		if err := s.MarkVisited(context.Background(), "http://never-seen.onion/"); err != nil {
			t.Errorf("expected no-op, got error: %v", err)
		}
	})
}

// TestIsVisited tests point lookups.
func TestIsVisited(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	visited, err := s.IsVisited(ctx, "http://unknown.onion/")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if visited {
		t.Error("expected unknown URL to be reported as not visited")
	}

	if _, err := s.InsertIfAbsent(ctx, "http://test.onion/"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	visited, err = s.IsVisited(ctx, "http://test.onion/")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if visited {
		t.Error("expected inserted but unfetched URL to be not visited")
	}
}

// TestRoundTrip verifies that state survives a close and reopen.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dbDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open frontier: %v", err)
	}

	if _, err := s.InsertIfAbsent(ctx, "http://test.onion/visited"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := s.InsertIfAbsent(ctx, "http://test.onion/pending"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.MarkVisited(ctx, "http://test.onion/visited"); err != nil {
		t.Fatalf("mark visited failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	s2, err := Open(dbDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to reopen frontier: %v", err)
	}
	defer s2.Close()

	visited, err := s2.IsVisited(ctx, "http://test.onion/visited")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !visited {
		t.Error("visited state was lost across reopen")
	}

	pending, err := s2.Unvisited(ctx)
	if err != nil {
		t.Fatalf("unvisited failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "http://test.onion/pending" {
		t.Errorf("expected pending URL to survive reopen, got %v", pending)
	}
}

// TestStats tests frontier counting.
func TestStats(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 0 || stats.Visited != 0 || stats.Pending != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	for _, u := range []string{"http://a.onion/", "http://b.onion/", "http://c.onion/"} {
		if _, err := s.InsertIfAbsent(ctx, u); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := s.MarkVisited(ctx, "http://a.onion/"); err != nil {
		t.Fatalf("mark visited failed: %v", err)
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Visited != 1 || stats.Pending != 2 {
		t.Errorf("expected total=3 visited=1 pending=2, got %+v", stats)
	}
}
