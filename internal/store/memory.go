package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store used for tests and single-node runs
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]json.RawMessage
	lists   map[string][]Entry
	subs    map[int]*subscription
	nextSub int
	closed  bool
}

type subscription struct {
	path string
	ch   chan Event
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]json.RawMessage),
		lists: make(map[string][]Entry),
		subs:  make(map[int]*subscription),
	}
}

// Replace overwrites the whole subtree at path, dropping any descendants
func (s *MemoryStore) Replace(ctx context.Context, path string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	s.mu.Lock()
	prefix := path + "/"
	for key := range s.docs {
		if strings.HasPrefix(key, prefix) {
			delete(s.docs, key)
		}
	}
	// Whole-subtree semantics: list children under the path go too
	for key := range s.lists {
		if key == path || strings.HasPrefix(key, prefix) {
			delete(s.lists, key)
		}
	}
	s.docs[path] = raw
	s.notifyLocked(path, raw)
	s.mu.Unlock()
	return nil
}

// Update applies each path independently, last-write-wins per path
func (s *MemoryStore) Update(ctx context.Context, values map[string]interface{}) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for path, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		encoded[path] = raw
	}

	s.mu.Lock()
	for path, raw := range encoded {
		s.docs[path] = raw
		s.notifyLocked(path, raw)
	}
	s.mu.Unlock()
	return nil
}

// Push appends a uniquely keyed child under path
func (s *MemoryStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", path, err)
	}
	key := uuid.NewString()

	s.mu.Lock()
	s.lists[path] = append(s.lists[path], Entry{Key: key, Value: raw})
	s.notifyLocked(path, raw)
	s.mu.Unlock()
	return key, nil
}

// Recent returns the most recent n children of path, newest first
func (s *MemoryStore) Recent(ctx context.Context, path string, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[path]
	if n > len(list) {
		n = len(list)
	}
	out := make([]Entry, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// Get returns the raw value at path, if present
func (s *MemoryStore) Get(path string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[path]
	return raw, ok
}

// Subscribe delivers change events for path and its descendants
func (s *MemoryStore) Subscribe(path string) (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	sub := &subscription{path: path, ch: make(chan Event, 16)}
	s.subs[id] = sub

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing.ch)
		}
	}
	return sub.ch, unsubscribe
}

// Close drops all subscriptions
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
	return nil
}

// notifyLocked fans out to subscribers whose path covers the changed path.
// Slow subscribers drop events rather than block writers.
func (s *MemoryStore) notifyLocked(path string, raw json.RawMessage) {
	for _, sub := range s.subs {
		if path == sub.path || strings.HasPrefix(path, sub.path+"/") {
			select {
			case sub.ch <- Event{Path: path, Value: raw}:
			default:
			}
		}
	}
}
