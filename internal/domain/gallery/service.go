// Package gallery coordinates the catalog, filter state and preview
// playback into the visible album view.
package gallery

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
	"github.com/crateview/crateview-backend/internal/domain/filter"
	"github.com/crateview/crateview-backend/internal/domain/preview"
)

// View is one recomputed gallery state pushed to clients.
type View struct {
	Status     string          `json:"status"` // catalog load state
	Error      string          `json:"error,omitempty"`
	Albums     []catalog.Album `json:"albums"`
	Categories []string        `json:"categories"`
	Genres     []string        `json:"genres"`
	Category   string          `json:"category"`
	Genre      string          `json:"genre"`
	SearchTerm string          `json:"searchTerm"`
	Query      string          `json:"query"` // address-bar query string, replace-style
}

// Service recomputes the visible set on every filter or catalog change and
// drives the single-result auto-play side effect.
type Service struct {
	store  *catalog.Store
	state  *filter.State
	player *preview.Controller

	mu             sync.Mutex
	lastAutoPlayed string
	onView         func(View)
	onNotice       func(string)
}

// NewService wires the gallery coordinator. It subscribes to filter state
// changes; callers trigger the initial recompute after the catalog loads.
func NewService(store *catalog.Store, state *filter.State, player *preview.Controller) *Service {
	s := &Service{
		store:  store,
		state:  state,
		player: player,
	}
	state.Subscribe(func(filter.Snapshot) {
		s.Recompute(context.Background())
	})
	return s
}

// OnView registers the broadcast callback for recomputed views.
func (s *Service) OnView(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onView = fn
}

// OnNotice registers the callback for recoverable user-facing notices.
func (s *Service) OnNotice(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNotice = fn
}

// View computes the current gallery view without side effects.
func (s *Service) View() View {
	albums := s.store.Albums()
	snap := s.state.Snapshot()
	errMsg := ""
	if err := s.store.Err(); err != nil {
		errMsg = err.Error()
	}
	return View{
		Status:     string(s.store.Status()),
		Error:      errMsg,
		Albums:     filter.Visible(albums, snap),
		Categories: catalog.Categories(albums),
		Genres:     catalog.GenresFor(albums, snap.Category),
		Category:   snap.Category,
		Genre:      snap.Genre,
		SearchTerm: snap.SearchTerm,
		Query:      snap.QueryString(),
	}
}

// Recompute rebuilds the visible set, broadcasts it, and evaluates the
// auto-play trigger: exactly one visible album while the intent flag is set.
func (s *Service) Recompute(ctx context.Context) View {
	view := s.View()
	snap := s.state.Snapshot()

	s.mu.Lock()
	onView := s.onView
	s.mu.Unlock()
	if onView != nil {
		onView(view)
	}

	if snap.AutoPlay && len(view.Albums) == 1 {
		s.autoPlay(ctx, view.Albums[0])
	}
	return view
}

// autoPlay fires at most once per distinct single-result album per intent
// activation. The intent flag is cleared before resolving so unrelated
// recomputations cannot re-trigger playback for the same album.
func (s *Service) autoPlay(ctx context.Context, album catalog.Album) {
	key := catalog.Key(album.Artist, album.Album)

	if active := s.player.Active(); active != nil &&
		catalog.Key(active.Track.Artist.Name, active.Track.Album.Title) == key {
		s.state.SetAutoPlay(false)
		return
	}

	s.mu.Lock()
	if s.lastAutoPlayed == key {
		s.mu.Unlock()
		s.state.SetAutoPlay(false)
		return
	}
	s.lastAutoPlayed = key
	s.mu.Unlock()

	s.state.SetAutoPlay(false)
	log.Info().Str("artist", album.Artist).Str("album", album.Album).Msg("Auto-playing single result")
	if err := s.player.Play(ctx, album.Artist, album.Album, album.Year); err != nil {
		s.notice(PlayErrorNotice(err))
	}
}

// PlayErrorNotice maps a playback error to its user-facing notice. Zero
// results and a failed lookup read differently in the gallery.
func PlayErrorNotice(err error) string {
	if errors.Is(err, preview.ErrNoPreview) {
		return "No preview found for this album."
	}
	return "Failed to load preview."
}

// Surprise picks a random album and narrows the gallery to it with playback
// intent. The intent flag must be set before the search term: the auto-play
// trigger reacts to the combination of both within the same update batch.
func (s *Service) Surprise(ctx context.Context) {
	albums := s.store.Albums()
	if len(albums) == 0 {
		return
	}
	album := albums[rand.Intn(len(albums))]
	log.Info().Str("artist", album.Artist).Str("album", album.Album).Msg("Random album picked")

	s.player.Stop()
	s.mu.Lock()
	s.lastAutoPlayed = ""
	s.mu.Unlock()

	s.state.SetCategory(catalog.CategoryAll) // also resets genre
	s.state.SetAutoPlay(true)
	s.state.SetSearchTerm(album.Album)
}

func (s *Service) notice(msg string) {
	s.mu.Lock()
	fn := s.onNotice
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}
