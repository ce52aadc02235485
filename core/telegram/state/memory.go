package state

import (
	"sync"
	"sync/atomic"
)

type slot[S any] struct {
	mu   sync.Mutex
	sess *S
	// refs counts goroutines holding or waiting for mu; guarded by memoryManager.mu
	refs int
}

type memoryManager[S any] struct {
	mu     sync.Mutex
	slots  map[int64]*slot[S]
	active atomic.Int64
}

// NewMemoryManager constructs an in-memory Manager. Sessions are lost on restart.
func NewMemoryManager[S any]() Manager[S] {
	return &memoryManager[S]{slots: make(map[int64]*slot[S])}
}

func (m *memoryManager[S]) acquire(userID int64) *slot[S] {
	m.mu.Lock()
	s, ok := m.slots[userID]
	if !ok {
		s = &slot[S]{}
		m.slots[userID] = s
	}
	s.refs++
	m.mu.Unlock()

	s.mu.Lock()
	return s
}

func (m *memoryManager[S]) release(userID int64, s *slot[S]) {
	s.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 && s.sess == nil {
		delete(m.slots, userID)
	}
}

// Update runs fn under the per-user lock and stores its result.
func (m *memoryManager[S]) Update(userID int64, fn func(cur *S) *S) {
	s := m.acquire(userID)
	defer m.release(userID, s)

	had := s.sess != nil
	s.sess = fn(s.sess)
	switch {
	case had && s.sess == nil:
		m.active.Add(-1)
	case !had && s.sess != nil:
		m.active.Add(1)
	}
}

// Get returns a shallow copy of the session for a user if it exists.
func (m *memoryManager[S]) Get(userID int64) (S, bool) {
	s := m.acquire(userID)
	defer m.release(userID, s)

	if s.sess == nil {
		var zero S
		return zero, false
	}
	return *s.sess, true
}

// Len returns the number of active sessions.
func (m *memoryManager[S]) Len() int {
	return int(m.active.Load())
}
