package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const recentTracksNowPlaying = `{
	"recenttracks": {
		"track": [
			{
				"name": "One More Time",
				"artist": {"#text": "Daft Punk"},
				"album": {"#text": "Discovery"},
				"image": [
					{"#text": "https://lastfm.example/34.jpg", "size": "small"},
					{"#text": "https://lastfm.example/174.jpg", "size": "large"}
				],
				"@attr": {"nowplaying": "true"}
			},
			{
				"name": "Aerodynamic",
				"artist": {"#text": "Daft Punk"},
				"album": {"#text": "Discovery"},
				"image": [],
				"date": {"uts": "1756300000"}
			}
		],
		"@attr": {"totalPages": "812"}
	}
}`

const recentTracksIdle = `{
	"recenttracks": {
		"track": [
			{
				"name": "Aerodynamic",
				"artist": {"#text": "Daft Punk"},
				"album": {"#text": "Discovery"},
				"image": [],
				"date": {"uts": "1756300000"}
			}
		],
		"@attr": {"totalPages": "812"}
	}
}`

func TestRecentTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "user.getrecenttracks" {
			t.Errorf("method = %q", q.Get("method"))
		}
		if q.Get("user") != "somebody" || q.Get("api_key") != "key123" {
			t.Errorf("credentials not forwarded: user=%q api_key=%q", q.Get("user"), q.Get("api_key"))
		}
		if q.Get("format") != "json" {
			t.Errorf("format = %q, want json", q.Get("format"))
		}
		w.Write([]byte(recentTracksNowPlaying))
	}))
	defer server.Close()

	client := NewClient("key123", "somebody", WithBaseURL(server.URL))
	tracks, err := client.RecentTracks(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("RecentTracks() error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if !tracks[0].IsNowPlaying() {
		t.Error("first track should carry the now-playing attribute")
	}
	if tracks[1].IsNowPlaying() {
		t.Error("scrobbled track misreported as now playing")
	}
	if got := tracks[0].ImageURL("large"); got != "https://lastfm.example/174.jpg" {
		t.Errorf("ImageURL(large) = %q", got)
	}
	if got := tracks[0].ImageURL("extralarge"); got != "" {
		t.Errorf("ImageURL(missing size) = %q, want empty", got)
	}
}

func TestNowPlayingLive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recentTracksNowPlaying))
	}))
	defer server.Close()

	client := NewClient("k", "u", WithBaseURL(server.URL))
	track, err := client.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying() error: %v", err)
	}
	if track == nil || track.Name != "One More Time" {
		t.Errorf("track = %+v, want the live scrobble", track)
	}
}

func TestNowPlayingIdle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recentTracksIdle))
	}))
	defer server.Close()

	client := NewClient("k", "u", WithBaseURL(server.URL))
	track, err := client.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying() error: %v", err)
	}
	if track != nil {
		t.Errorf("track = %+v, want nil when nothing is live", track)
	}
}

func TestTopAlbums(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "user.gettopalbums" {
			t.Errorf("method = %q", q.Get("method"))
		}
		if q.Get("period") != "1month" {
			t.Errorf("period = %q", q.Get("period"))
		}
		w.Write([]byte(`{
			"topalbums": {
				"album": [{
					"name": "Discovery",
					"artist": {"name": "Daft Punk"},
					"playcount": "42",
					"image": []
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("k", "u", WithBaseURL(server.URL))
	albums, err := client.TopAlbums(context.Background(), "1month", 10)
	if err != nil {
		t.Fatalf("TopAlbums() error: %v", err)
	}
	if len(albums) != 1 || albums[0].Name != "Discovery" || albums[0].Artist.Name != "Daft Punk" {
		t.Errorf("albums = %+v", albums)
	}
}

func TestClientUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("k", "u", WithBaseURL(server.URL))
	if _, err := client.RecentTracks(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
