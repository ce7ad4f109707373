// Package filter holds the gallery filter state and the album predicate.
package filter

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

// Snapshot is an immutable view of the filter state. AutoPlay is transient:
// it is never serialized to the query string.
type Snapshot struct {
	Category   string
	Genre      string
	SearchTerm string
	AutoPlay   bool
}

// Default returns the initial filter state.
func Default() Snapshot {
	return Snapshot{Category: catalog.CategoryAll}
}

// Listener is notified after every state change with the new snapshot.
type Listener func(Snapshot)

// State is the mutable filter state container. All transitions are
// synchronous; listeners run on the mutating goroutine, after the lock is
// released, in registration order.
type State struct {
	mu        sync.Mutex
	snap      Snapshot
	listeners []Listener
}

// NewState creates a filter state at defaults.
func NewState() *State {
	return &State{snap: Default()}
}

// Subscribe registers a change listener.
func (s *State) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetCategory selects a category and unconditionally resets the genre.
// Genre options are category-scoped, so a category change always
// invalidates the genre facet, whether or not the old value would still
// be derivable.
func (s *State) SetCategory(category string) {
	s.apply(func(snap *Snapshot) {
		snap.Category = category
		snap.Genre = ""
	})
}

// SetGenre selects a genre. Category and search are untouched.
func (s *State) SetGenre(genre string) {
	s.apply(func(snap *Snapshot) {
		snap.Genre = genre
	})
}

// SetSearchTerm sets the free-text search term. The term is stored as
// typed; comparison is case-insensitive at the predicate boundary.
func (s *State) SetSearchTerm(term string) {
	s.apply(func(snap *Snapshot) {
		snap.SearchTerm = term
	})
}

// SetAutoPlay sets the transient auto-play intent. In the random-album flow
// this must be called before SetSearchTerm: consumers react to the
// combination of a single visible result and intent being set.
func (s *State) SetAutoPlay(autoPlay bool) {
	s.apply(func(snap *Snapshot) {
		snap.AutoPlay = autoPlay
	})
}

// Reset returns the state to defaults.
func (s *State) Reset() {
	s.apply(func(snap *Snapshot) {
		*snap = Default()
	})
}

func (s *State) apply(mutate func(*Snapshot)) {
	s.mu.Lock()
	before := s.snap
	mutate(&s.snap)
	after := s.snap
	listeners := s.listeners
	s.mu.Unlock()

	if after == before {
		return
	}
	log.Debug().
		Str("category", after.Category).
		Str("genre", after.Genre).
		Str("search", after.SearchTerm).
		Bool("autoPlay", after.AutoPlay).
		Msg("Filter state changed")
	for _, l := range listeners {
		l(after)
	}
}
