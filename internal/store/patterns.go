// Package store holds the historical keyword-pattern log the orchestrator
// learns from. Two backends exist: an in-memory bounded log (default) and a
// SQLite-backed one for keeping the learned corpus across restarts.
package store

import "time"

// MaxPatternsPerKey bounds the per-key log. Oldest entries are evicted
// first; this is a FIFO, not a recency cache.
const MaxPatternsPerKey = 100

// GeneralKey is the bucket used when no user identity is available.
const GeneralKey = "general"

// HistoricalPattern records one past successful analysis.
type HistoricalPattern struct {
	Timestamp          time.Time `json:"timestamp"`
	ContentLength      int       `json:"content_length"`
	SuccessfulKeywords []string  `json:"successful_keywords"`
	ReadabilityScore   float64   `json:"readability_score"`
	Topics             []string  `json:"topics"`
	Sentiment          string    `json:"sentiment"`
}

// PatternStore is an append-only, size-bounded per-key pattern log.
// Implementations must serialize concurrent appends per key; snapshots may
// reflect any recent consistent state.
type PatternStore interface {
	Append(key string, pattern HistoricalPattern) error
	Snapshot(key string) ([]HistoricalPattern, error)
	Count() (int, error)
	Close() error
}
