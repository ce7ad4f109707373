package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Status describes the load state of the catalog store.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Loader fetches the raw album collection from wherever it lives.
type Loader interface {
	LoadCollection(ctx context.Context) ([]Album, error)
}

// Store holds the immutable, sorted album collection. The catalog is loaded
// once at startup; there is no retry and no reload.
type Store struct {
	mu      sync.RWMutex
	loader  Loader
	status  Status
	loading bool
	albums  []Album
	err     error
}

// NewStore creates a store in the pending state.
func NewStore(loader Loader) *Store {
	return &Store{
		loader: loader,
		status: StatusPending,
	}
}

// Load fetches, copies and sorts the collection. It is an idempotent
// trigger: once a load has started, further calls are no-ops even while the
// first fetch is still in flight.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusPending || s.loading {
		err := s.err
		s.mu.Unlock()
		return err
	}
	s.loading = true
	s.mu.Unlock()

	albums, err := s.loader.LoadCollection(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.status = StatusFailed
		s.err = err
		log.Error().Err(err).Msg("Catalog load failed")
		return err
	}

	// Defensive copy, then enforce the ordering invariant once: artist
	// case-insensitively, year ascending within the same artist.
	sorted := make([]Album, len(albums))
	copy(sorted, albums)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai := strings.ToLower(sorted[i].Artist)
		aj := strings.ToLower(sorted[j].Artist)
		if ai != aj {
			return ai < aj
		}
		return sorted[i].Year < sorted[j].Year
	})

	s.albums = sorted
	s.status = StatusReady
	log.Info().Int("albums", len(sorted)).Msg("Catalog loaded")
	return nil
}

// Status returns the current load state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the load error, if the load failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Albums returns the sorted collection. Callers must treat the slice as
// read-only; the store never re-sorts or mutates it after load.
func (s *Store) Albums() []Album {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.albums
}
