// Package personalization provides the hearted and NSFW-reveal sets shared
// by the gallery.
package personalization

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

// Heart is one favorite with its insertion timestamp, kept for recency
// ordering.
type Heart struct {
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	HeartedAt time.Time `json:"heartedAt"`
}

// Store persists the personalization sets. Persistence failures are logged
// and do not roll back the in-memory state; the sets remain usable for the
// session.
type Store interface {
	PutHeart(key string, heart Heart) error
	DeleteHeart(key string) error
	ListHearts() (map[string]Heart, error)
	PutReveal(key string) error
	ListReveals() ([]string, error)
	GetNSFWFilter() (bool, error)
	SetNSFWFilter(enabled bool) error
}

// Service owns the hearted set, the revealed set and the NSFW filter
// preference. The NSFW membership list itself is externally supplied.
type Service struct {
	mu          sync.RWMutex
	store       Store
	hearts      map[string]Heart
	revealed    map[string]struct{}
	nsfw        map[string]struct{}
	nsfwEnabled bool
}

// NewService loads the persisted sets from the store. The NSFW list is the
// externally supplied membership table; a missing list means no album is
// sensitive.
func NewService(store Store, nsfwList []catalog.KeyedEntry) (*Service, error) {
	hearts, err := store.ListHearts()
	if err != nil {
		return nil, err
	}
	reveals, err := store.ListReveals()
	if err != nil {
		return nil, err
	}
	enabled, err := store.GetNSFWFilter()
	if err != nil {
		return nil, err
	}

	revealed := make(map[string]struct{}, len(reveals))
	for _, key := range reveals {
		revealed[key] = struct{}{}
	}
	nsfw := make(map[string]struct{}, len(nsfwList))
	for _, entry := range nsfwList {
		nsfw[catalog.Key(entry.Artist, entry.Album)] = struct{}{}
	}

	return &Service{
		store:       store,
		hearts:      hearts,
		revealed:    revealed,
		nsfw:        nsfw,
		nsfwEnabled: enabled,
	}, nil
}

// ToggleHeart flips membership of the album in the hearted set and returns
// the new membership. Adding records the current time; removing drops the
// timestamped entry with it.
func (s *Service) ToggleHeart(artist, album string) bool {
	key := catalog.Key(artist, album)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hearts[key]; ok {
		delete(s.hearts, key)
		if err := s.store.DeleteHeart(key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to persist heart removal")
		}
		return false
	}

	heart := Heart{Artist: artist, Album: album, HeartedAt: time.Now()}
	s.hearts[key] = heart
	if err := s.store.PutHeart(key, heart); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to persist heart")
	}
	return true
}

// IsHearted reports membership in the hearted set.
func (s *Service) IsHearted(artist, album string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hearts[catalog.Key(artist, album)]
	return ok
}

// Hearts returns the favorites, most recent first.
func (s *Service) Hearts() []Heart {
	s.mu.RLock()
	hearts := make([]Heart, 0, len(s.hearts))
	for _, h := range s.hearts {
		hearts = append(hearts, h)
	}
	s.mu.RUnlock()

	sort.Slice(hearts, func(i, j int) bool {
		if !hearts[i].HeartedAt.Equal(hearts[j].HeartedAt) {
			return hearts[i].HeartedAt.After(hearts[j].HeartedAt)
		}
		return strings.Compare(hearts[i].Artist, hearts[j].Artist) < 0
	})
	return hearts
}

// Reveal lifts the sensitivity blur for one album. Reveals are monotonic:
// nothing in this component ever removes a key from the revealed set.
func (s *Service) Reveal(artist, album string) {
	key := catalog.Key(artist, album)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.revealed[key]; ok {
		return
	}
	s.revealed[key] = struct{}{}
	if err := s.store.PutReveal(key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to persist reveal")
	}
}

// IsNSFW reports membership in the externally supplied NSFW list.
func (s *Service) IsNSFW(artist, album string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nsfw[catalog.Key(artist, album)]
	return ok
}

// IsRevealed reports whether the album should render unblurred. With the
// NSFW filter disabled every album counts as revealed.
func (s *Service) IsRevealed(artist, album string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.nsfwEnabled {
		return true
	}
	_, ok := s.revealed[catalog.Key(artist, album)]
	return ok
}

// NSFWFilterEnabled reports the persisted blur preference.
func (s *Service) NSFWFilterEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nsfwEnabled
}

// SetNSFWFilter sets and persists the blur preference.
func (s *Service) SetNSFWFilter(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nsfwEnabled = enabled
	if err := s.store.SetNSFWFilter(enabled); err != nil {
		log.Error().Err(err).Msg("Failed to persist NSFW filter preference")
	}
}
