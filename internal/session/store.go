// Package session keeps each browser session's drill-down state in memory
// and identifies sessions through a signed cookie.
package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"sales-drilldown/internal/drilldown"
)

const defaultCleanupInterval = 10 * time.Minute

type entry struct {
	mu    sync.Mutex
	state drilldown.State
	// set by Delete; an ended entry is never written back to the cache
	ended bool
}

// Store maps session ids to navigation state. Entries expire after the idle
// TTL, which ends the session. Reads and successful transitions both count
// as activity.
type Store struct {
	cache *cache.Cache
}

func NewStore(idleTTL, cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &Store{cache: cache.New(idleTTL, cleanupInterval)}
}

// Load returns the session's state, or the home state for a session that
// has not navigated yet. It resets the idle timer of a live session.
func (s *Store) Load(id string) drilldown.State {
	x, found := s.cache.Get(id)
	if !found {
		return drilldown.Home()
	}
	e := x.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended {
		return drilldown.Home()
	}
	s.cache.Set(id, e, cache.DefaultExpiration)
	return e.state
}

// Update runs fn against a copy of the session's state and stores the copy
// only when fn succeeds, so a rejected transition never leaves a trace: a
// session is created by its first accepted transition.
func (s *Store) Update(id string, fn func(*drilldown.State) error) (drilldown.State, error) {
	for {
		e, fresh := s.lookup(id)
		e.mu.Lock()

		next := e.state
		if err := fn(&next); err != nil {
			e.mu.Unlock()
			return e.state, err
		}

		switch {
		case e.ended:
			// The session ended while fn ran; the transition happened before
			// the end and is not kept.
			e.mu.Unlock()
			return next, nil
		case fresh:
			e.state = next
			if err := s.cache.Add(id, e, cache.DefaultExpiration); err != nil {
				// another request created the session first; apply on top of it
				e.mu.Unlock()
				continue
			}
		default:
			e.state = next
			s.cache.Set(id, e, cache.DefaultExpiration)
		}
		e.mu.Unlock()
		return next, nil
	}
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	if x, found := s.cache.Get(id); found {
		e := x.(*entry)
		e.mu.Lock()
		defer e.mu.Unlock()
		e.ended = true
	}
	s.cache.Delete(id)
}

// Count reports the number of live sessions, including ones that have
// expired but not yet been swept.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// lookup returns the cached entry, or a new unpublished one at home.
func (s *Store) lookup(id string) (*entry, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*entry), false
	}
	return &entry{state: drilldown.Home()}, true
}
