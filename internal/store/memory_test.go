package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEvictsOldestBeyondCap(t *testing.T) {
	s := NewMemoryPatternStore()

	for i := 0; i < MaxPatternsPerKey+10; i++ {
		err := s.Append("u1", HistoricalPattern{
			Timestamp:     time.Now().UTC(),
			ContentLength: i,
		})
		require.NoError(t, err)
	}

	patterns, err := s.Snapshot("u1")
	require.NoError(t, err)
	require.Len(t, patterns, MaxPatternsPerKey)

	// Oldest ten were evicted; order of the survivors is preserved.
	assert.Equal(t, 10, patterns[0].ContentLength)
	assert.Equal(t, MaxPatternsPerKey+9, patterns[len(patterns)-1].ContentLength)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryPatternStore()

	require.NoError(t, s.Append("u1", HistoricalPattern{ContentLength: 1}))
	require.NoError(t, s.Append("u2", HistoricalPattern{ContentLength: 2}))

	u1, err := s.Snapshot("u1")
	require.NoError(t, err)
	assert.Len(t, u1, 1)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	s := NewMemoryPatternStore()
	require.NoError(t, s.Append("u1", HistoricalPattern{ContentLength: 1}))

	snapshot, err := s.Snapshot("u1")
	require.NoError(t, err)
	require.NoError(t, s.Append("u1", HistoricalPattern{ContentLength: 2}))

	assert.Len(t, snapshot, 1)
}

func TestMemoryStoreMissingKeyIsEmpty(t *testing.T) {
	s := NewMemoryPatternStore()
	patterns, err := s.Snapshot("nobody")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	s := NewMemoryPatternStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			key := fmt.Sprintf("u%d", worker%2)
			for j := 0; j < 50; j++ {
				_ = s.Append(key, HistoricalPattern{ContentLength: j})
			}
		}(i)
	}
	wg.Wait()

	for _, key := range []string{"u0", "u1"} {
		patterns, err := s.Snapshot(key)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(patterns), MaxPatternsPerKey)
	}
}
