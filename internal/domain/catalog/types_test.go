package catalog_test

import (
	"reflect"
	"testing"

	"github.com/crateview/crateview-backend/internal/domain/catalog"
)

func TestAlbumGenres(t *testing.T) {
	tests := []struct {
		name  string
		genre string
		want  []string
	}{
		{"single genre", "Rock", []string{"Rock"}},
		{"comma separated", "Rock, Psychedelic Rock,Prog", []string{"Rock", "Psychedelic Rock", "Prog"}},
		{"empty tags discarded", "Rock,, , Jazz", []string{"Rock", "Jazz"}},
		{"empty field", "", []string{}},
		{"whitespace only", "  ,  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			album := catalog.Album{Genre: tt.genre}
			if got := album.Genres(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Genres() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlbumHasGenre(t *testing.T) {
	album := catalog.Album{Genre: "Rock, Psychedelic Rock"}

	if !album.HasGenre("Psychedelic Rock") {
		t.Error("expected album to have genre after trimming")
	}
	if album.HasGenre("Psychedelic") {
		t.Error("genre match must be exact, not substring")
	}
	if album.HasGenre("rock") {
		t.Error("genre tags are compared case-sensitively")
	}
}

func TestKey(t *testing.T) {
	if got := catalog.Key("Pink Floyd", "The Wall"); got != "pink floyd::the wall" {
		t.Errorf("Key() = %q", got)
	}

	// Identity is case-insensitive on both components
	if catalog.Key("PINK FLOYD", "THE WALL") != catalog.Key("pink floyd", "the wall") {
		t.Error("keys should be case-insensitive")
	}
}
