package core

import (
	"hash/fnv"
	"sync"
	"time"
)

// ScoreSnapshot is one entry of a session's score history.
type ScoreSnapshot struct {
	Overall   float64        `json:"overall_score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Timestamp time.Time      `json:"timestamp"`
}

// Session is one active writing session. It is owned exclusively by the
// SessionStore; all mutation goes through store methods under the shard
// lock. The revision counter increments on every draft update and guards
// against stale workflow results overwriting newer state.
type Session struct {
	ID                string
	Profile           UserProfile
	CurrentDraft      string
	SuggestionHistory []SuggestionPayload
	ScoreHistory      []ScoreSnapshot
	CreatedAt         time.Time
	LastUpdated       time.Time
	Active            bool
	revision          uint64
}

const sessionShards = 16

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// SessionStore is a sharded registry of active sessions. Operations on
// distinct session ids never contend on a common lock.
type SessionStore struct {
	shards [sessionShards]*sessionShard
}

func NewSessionStore() *SessionStore {
	s := &SessionStore{}
	for i := range s.shards {
		s.shards[i] = &sessionShard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *SessionStore) shard(id string) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%sessionShards]
}

func (s *SessionStore) Create(session *Session) {
	shard := s.shard(session.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.sessions[session.ID] = session
}

// BeginUpdate records the new draft on the session and returns the profile
// plus the revision this update runs against.
func (s *SessionStore) BeginUpdate(id, draft string) (UserProfile, uint64, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[id]
	if !ok {
		return UserProfile{}, 0, ErrSessionNotFound
	}
	session.CurrentDraft = draft
	session.LastUpdated = time.Now().UTC()
	session.revision++
	return session.Profile, session.revision, nil
}

// CommitResult appends the payload and score snapshot, but only when the
// session's draft has not moved past the revision this result was computed
// for. Stale results are discarded (last-write-wins).
func (s *SessionStore) CommitResult(id string, revision uint64, payload SuggestionPayload, score ScoreSnapshot) (bool, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	if session.revision != revision {
		return false, nil
	}
	session.SuggestionHistory = append(session.SuggestionHistory, payload)
	session.ScoreHistory = append(session.ScoreHistory, score)
	session.LastUpdated = time.Now().UTC()
	return true, nil
}

// Remove deletes the session and returns its final state for summarizing.
func (s *SessionStore) Remove(id string) (*Session, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	session, ok := shard.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(shard.sessions, id)
	session.Active = false
	return session, nil
}

// Len counts active sessions across all shards.
func (s *SessionStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.sessions)
		shard.mu.RUnlock()
	}
	return total
}
