package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"Travia/internal/transport"
)

// State is the conversational memory of one session: only the latest turn
// is remembered.
type State struct {
	LastQuery string            `json:"last_query"`
	LastBest  *transport.Option `json:"last_best_option,omitempty"`
	Name      string            `json:"name,omitempty"`
}

// Memory is a session's state plus its lock.
type Memory struct {
	State
	ID        string
	StartTime time.Time
	mu        sync.Mutex
}

// Store keeps memories in process, keyed by session id. A memory idle for
// longer than the TTL is forgotten.
type Store struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewStore creates a Store whose sessions expire after ttl of inactivity.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	return &Store{items: cache.New(ttl, cleanupInterval)}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Acquire returns the memory for id, creating it if needed, locked for the
// caller. The returned func releases it. Acquiring also refreshes the TTL.
func (s *Store) Acquire(id string) (*Memory, func()) {
	s.mu.Lock()
	var mem *Memory
	if v, ok := s.items.Get(id); ok {
		mem = v.(*Memory)
	} else {
		mem = &Memory{ID: id, StartTime: time.Now()}
	}
	s.items.Set(id, mem, cache.DefaultExpiration)
	s.mu.Unlock()

	mem.mu.Lock()
	return mem, mem.mu.Unlock
}

// Peek returns a copy of the state for id without creating it.
func (s *Store) Peek(id string) (State, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return State{}, false
	}
	mem := v.(*Memory)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	return mem.State, true
}

// Reset forgets id.
func (s *Store) Reset(id string) {
	s.items.Delete(id)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.items.ItemCount()
}
