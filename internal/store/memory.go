package store

import "sync"

// MemoryPatternStore keeps patterns for the process lifetime only.
type MemoryPatternStore struct {
	mu       sync.RWMutex
	patterns map[string][]HistoricalPattern
}

func NewMemoryPatternStore() *MemoryPatternStore {
	return &MemoryPatternStore{
		patterns: make(map[string][]HistoricalPattern),
	}
}

func (s *MemoryPatternStore) Append(key string, pattern HistoricalPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.patterns[key], pattern)
	if len(entries) > MaxPatternsPerKey {
		entries = entries[len(entries)-MaxPatternsPerKey:]
	}
	s.patterns[key] = entries
	return nil
}

// Snapshot returns a copy so callers never observe later appends.
func (s *MemoryPatternStore) Snapshot(key string) ([]HistoricalPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.patterns[key]
	out := make([]HistoricalPattern, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryPatternStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, entries := range s.patterns {
		total += len(entries)
	}
	return total, nil
}

func (s *MemoryPatternStore) Close() error {
	return nil
}
