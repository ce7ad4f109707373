package gallery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
	"github.com/crateview/crateview-backend/internal/domain/filter"
	"github.com/crateview/crateview-backend/internal/domain/gallery"
	"github.com/crateview/crateview-backend/internal/domain/preview"
)

type fixedLoader struct {
	albums []catalog.Album
}

func (l fixedLoader) LoadCollection(ctx context.Context) ([]catalog.Album, error) {
	return l.albums, nil
}

type countingLookup struct {
	calls   int
	noMatch bool
	err     error
}

func (l *countingLookup) SearchTracks(ctx context.Context, query string) ([]preview.Track, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if l.noMatch {
		return nil, nil
	}
	var t preview.Track
	t.ID = l.calls
	t.Title = "Preview"
	t.Preview = "https://cdn.example/p.mp3"
	// Echo the artist-qualified query back so the active slot carries the
	// album identity the coordinator asked for.
	fmt.Sscanf(query, "artist:%q album:%q", &t.Artist.Name, &t.Album.Title)
	return []preview.Track{t}, nil
}

var testAlbums = []catalog.Album{
	{Artist: "Daft Punk", Album: "Discovery", Year: 2001, Category: "CD", Genre: "Electronic, House"},
	{Artist: "Daft Punk", Album: "Homework", Year: 1997, Category: "CD", Genre: "Electronic"},
	{Artist: "Pink Floyd", Album: "The Wall", Year: 1979, Category: "Vinyl", Genre: "Rock"},
}

func newFixture(t *testing.T, lookup preview.Lookup) (*gallery.Service, *filter.State, *preview.Controller) {
	t.Helper()
	store := catalog.NewStore(fixedLoader{albums: testAlbums})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	state := filter.NewState()
	player := preview.NewController(lookup)
	return gallery.NewService(store, state, player), state, player
}

func TestViewReflectsFilterState(t *testing.T) {
	svc, state, _ := newFixture(t, &countingLookup{})

	state.SetCategory("CD")
	state.SetGenre("House")

	view := svc.View()
	if len(view.Albums) != 1 || view.Albums[0].Album != "Discovery" {
		t.Fatalf("albums = %v, want exactly Discovery", view.Albums)
	}
	if view.Query != "category=CD&genre=House" {
		t.Errorf("Query = %q, want the address-bar form", view.Query)
	}
	if len(view.Categories) != 2 {
		t.Errorf("categories = %v, want CD and Vinyl", view.Categories)
	}
	// Genre options scoped to the selected category
	for _, g := range view.Genres {
		if g == "Rock" {
			t.Errorf("Genres = %v, Rock leaked in from another category", view.Genres)
		}
	}
}

func TestAutoPlayOnSingleResult(t *testing.T) {
	lookup := &countingLookup{}
	_, state, player := newFixture(t, lookup)

	state.SetAutoPlay(true)
	state.SetSearchTerm("discovery")

	if lookup.calls != 1 {
		t.Fatalf("lookup called %d times, want 1", lookup.calls)
	}
	if player.Status() != preview.StatusPlaying {
		t.Errorf("status = %q, want playing", player.Status())
	}
	if state.Snapshot().AutoPlay {
		t.Error("intent flag not consumed after firing")
	}
}

func TestAutoPlayDoesNotRefireOnRecompute(t *testing.T) {
	lookup := &countingLookup{}
	svc, state, _ := newFixture(t, lookup)

	state.SetAutoPlay(true)
	state.SetSearchTerm("discovery")
	// Unrelated re-renders of the same single-result view
	svc.Recompute(context.Background())
	svc.Recompute(context.Background())

	if lookup.calls != 1 {
		t.Errorf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestAutoPlayRequiresIntent(t *testing.T) {
	lookup := &countingLookup{}
	_, state, _ := newFixture(t, lookup)

	// Narrowing to one album by typing alone never starts playback.
	state.SetSearchTerm("discovery")

	if lookup.calls != 0 {
		t.Errorf("lookup called %d times without intent, want 0", lookup.calls)
	}
}

func TestAutoPlaySkipsAlreadyActiveAlbum(t *testing.T) {
	lookup := &countingLookup{}
	_, state, player := newFixture(t, lookup)

	if err := player.Play(context.Background(), "Daft Punk", "Discovery", 2001); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	callsAfterManualPlay := lookup.calls

	state.SetAutoPlay(true)
	state.SetSearchTerm("discovery")

	if lookup.calls != callsAfterManualPlay {
		t.Error("auto-play restarted the preview already occupying the slot")
	}
	if state.Snapshot().AutoPlay {
		t.Error("intent flag not consumed on skip")
	}
}

func TestAutoPlayNoPreviewEmitsNotice(t *testing.T) {
	lookup := &countingLookup{noMatch: true}
	svc, state, player := newFixture(t, lookup)

	var notices []string
	svc.OnNotice(func(msg string) { notices = append(notices, msg) })

	state.SetAutoPlay(true)
	state.SetSearchTerm("discovery")

	if len(notices) != 1 || notices[0] != "No preview found for this album." {
		t.Errorf("notices = %v, want a single no-preview notice", notices)
	}
	if player.Status() != preview.StatusIdle {
		t.Errorf("status = %q, want idle", player.Status())
	}
}

func TestAutoPlayLookupFailureEmitsDistinctNotice(t *testing.T) {
	lookup := &countingLookup{err: errors.New("upstream down")}
	svc, state, _ := newFixture(t, lookup)

	var notices []string
	svc.OnNotice(func(msg string) { notices = append(notices, msg) })

	state.SetAutoPlay(true)
	state.SetSearchTerm("discovery")

	if len(notices) != 1 || notices[0] != "Failed to load preview." {
		t.Errorf("notices = %v, want the lookup-failure notice", notices)
	}
}

func TestPlayErrorNotice(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"zero results", preview.ErrNoPreview, "No preview found for this album."},
		{"wrapped zero results", fmt.Errorf("resolve: %w", preview.ErrNoPreview), "No preview found for this album."},
		{"lookup failure", errors.New("connection refused"), "Failed to load preview."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gallery.PlayErrorNotice(tt.err); got != tt.want {
				t.Errorf("PlayErrorNotice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSurpriseNarrowsAndPlays(t *testing.T) {
	lookup := &countingLookup{}
	svc, state, player := newFixture(t, lookup)

	var views []gallery.View
	svc.OnView(func(v gallery.View) { views = append(views, v) })

	svc.Surprise(context.Background())

	snap := state.Snapshot()
	if snap.Category != catalog.CategoryAll || snap.Genre != "" {
		t.Errorf("snapshot = %+v, want unrestricted category and empty genre", snap)
	}
	if snap.SearchTerm == "" {
		t.Error("search term not set to the picked album title")
	}
	if snap.AutoPlay {
		t.Error("intent flag not consumed")
	}
	if player.Status() != preview.StatusPlaying {
		t.Errorf("status = %q, want playing", player.Status())
	}
	if len(views) == 0 {
		t.Fatal("no view broadcasts during surprise")
	}
	final := views[len(views)-1]
	if final.SearchTerm != snap.SearchTerm {
		t.Errorf("final view search = %q, want %q", final.SearchTerm, snap.SearchTerm)
	}
}

// Changing category after an auto-play, then returning to a state where the
// same album is the only result, plays it again: the dedup guard is per
// intent activation, reset by Surprise, not a permanent blocklist.
func TestAutoPlayAfterSurpriseResetsGuard(t *testing.T) {
	lookup := &countingLookup{}
	svc, state, player := newFixture(t, lookup)

	state.SetAutoPlay(true)
	state.SetSearchTerm("the wall")
	if lookup.calls != 1 {
		t.Fatalf("lookup called %d times, want 1", lookup.calls)
	}

	player.Stop()
	svc.Surprise(context.Background())

	if player.Status() != preview.StatusPlaying {
		t.Errorf("status = %q after surprise, want playing", player.Status())
	}
}
