package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

type window struct {
	key   string
	stamp []time.Time // ascending, at most Limit entries
}

// MemoryStore is a sliding-window log per client held in a bounded LRU.
// The least recently seen client is evicted when Capacity is reached.
type MemoryStore struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	order     *list.List // front = most recently seen
	entries   map[string]*list.Element
	lastSweep time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Allow implements middleware.RateLimiterStore.
func (s *MemoryStore) Allow(identifier string) (bool, error) {
	now := s.now()
	floor := now.Add(-s.cfg.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.cfg.Window {
		s.sweep(floor)
		s.lastSweep = now
	}

	var w *window
	if el, ok := s.entries[identifier]; ok {
		s.order.MoveToFront(el)
		w = el.Value.(*window)
	} else {
		if s.order.Len() >= s.cfg.Capacity {
			s.evictOldest()
		}
		w = &window{key: identifier}
		s.entries[identifier] = s.order.PushFront(w)
	}

	w.stamp = trim(w.stamp, floor)
	if len(w.stamp) >= s.cfg.Limit {
		return false, nil
	}
	w.stamp = append(w.stamp, now)
	return true, nil
}

// Len reports the number of tracked clients.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// sweep drops clients with no request inside the window. Walks from the back
// since the list is ordered by last access.
func (s *MemoryStore) sweep(floor time.Time) {
	for el := s.order.Back(); el != nil; {
		w := el.Value.(*window)
		if n := len(w.stamp); n > 0 && w.stamp[n-1].After(floor) {
			return
		}
		prev := el.Prev()
		s.order.Remove(el)
		delete(s.entries, w.key)
		el = prev
	}
}

func (s *MemoryStore) evictOldest() {
	el := s.order.Back()
	if el == nil {
		return
	}
	s.order.Remove(el)
	delete(s.entries, el.Value.(*window).key)
}

func trim(stamps []time.Time, floor time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(floor) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[i:]...)
}
