package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store holds the current table for one data source and mediates reloads.
// Concurrent loads of the same source collapse into one fetch; callers
// arriving while a load is in flight share its result. A failed load leaves
// the store in an explicit empty state rather than keeping stale rows.
type Store struct {
	source  string
	fetcher *Fetcher

	mu     sync.RWMutex
	table  *Table
	loaded bool

	group singleflight.Group
}

func NewStore(source string, fetcher *Fetcher) *Store {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	return &Store{source: source, fetcher: fetcher}
}

// Load fetches and parses the source, replacing the current table. Repeated
// concurrent calls perform a single fetch.
func (s *Store) Load(ctx context.Context) (*Table, error) {
	result, err, _ := s.group.Do(s.source, func() (any, error) {
		text, err := s.fetcher.Fetch(ctx, s.source)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", s.source, err)
		}
		return ParseTable(text)
	})
	if err != nil {
		s.reset()
		return nil, err
	}

	table := result.(*Table)
	s.mu.Lock()
	s.table = table
	s.loaded = true
	s.mu.Unlock()
	slog.Info("loaded dataset", "source", s.source, "rows", len(table.Rows), "columns", len(table.Headers))
	return table, nil
}

// Reload invalidates the fetch cache and loads the source again.
func (s *Store) Reload(ctx context.Context) (*Table, error) {
	s.fetcher.Invalidate(s.source)
	return s.Load(ctx)
}

// LoadText replaces the current table with one parsed from raw CSV text,
// bypassing the fetcher. Used for inline data sources and tests.
func (s *Store) LoadText(text string) (*Table, error) {
	table, err := ParseTable(text)
	if err != nil {
		s.reset()
		return nil, err
	}
	s.mu.Lock()
	s.table = table
	s.loaded = true
	s.mu.Unlock()
	return table, nil
}

// Table returns the current table, or false when no load has succeeded.
func (s *Store) Table() (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.loaded
}

func (s *Store) Source() string {
	return s.source
}

func (s *Store) reset() {
	s.mu.Lock()
	s.table = nil
	s.loaded = false
	s.mu.Unlock()
}
