// Package lastfm provides the scrobble history client and the now-playing
// poller.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Last.fm API base URL
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 10 * time.Second
)

// Track is one scrobbled (or currently playing) track.
type Track struct {
	Name   string `json:"name"`
	Artist struct {
		Text string `json:"#text"`
	} `json:"artist"`
	Album struct {
		Text string `json:"#text"`
	} `json:"album"`
	Images []Image `json:"image"`
	Date   *struct {
		UTS string `json:"uts"`
	} `json:"date,omitempty"`
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr,omitempty"`
}

// Image is one sized artwork URL.
type Image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// IsNowPlaying reports whether the track is the live scrobble.
func (t Track) IsNowPlaying() bool {
	return t.Attr != nil && t.Attr.NowPlaying == "true"
}

// ImageURL returns the artwork URL for the given size, or "".
func (t Track) ImageURL(size string) string {
	for _, img := range t.Images {
		if img.Size == size {
			return img.URL
		}
	}
	return ""
}

// TopAlbum is one entry from the top-albums chart.
type TopAlbum struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	PlayCount string  `json:"playcount"`
	Images    []Image `json:"image"`
}

// Client talks to the Last.fm user API.
type Client struct {
	baseURL    string
	apiKey     string
	user       string
	httpClient *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a Last.fm client for one user.
func NewClient(apiKey, user string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		user:    user,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recentTracksResponse struct {
	RecentTracks struct {
		Track []Track `json:"track"`
		Attr  struct {
			TotalPages string `json:"totalPages"`
		} `json:"@attr"`
	} `json:"recenttracks"`
}

type topAlbumsResponse struct {
	TopAlbums struct {
		Album []TopAlbum `json:"album"`
	} `json:"topalbums"`
}

// RecentTracks fetches the user's recent scrobbles, newest first. The first
// entry carries the now-playing attribute when a track is live.
func (c *Client) RecentTracks(ctx context.Context, limit, page int) ([]Track, error) {
	params := url.Values{}
	params.Set("method", "user.getrecenttracks")
	params.Set("limit", fmt.Sprintf("%d", limit))
	if page > 1 {
		params.Set("page", fmt.Sprintf("%d", page))
	}

	var parsed recentTracksResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}
	return parsed.RecentTracks.Track, nil
}

// NowPlaying returns the currently playing track, or nil when nothing is
// live.
func (c *Client) NowPlaying(ctx context.Context) (*Track, error) {
	tracks, err := c.RecentTracks(ctx, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 || !tracks[0].IsNowPlaying() {
		return nil, nil
	}
	track := tracks[0]
	return &track, nil
}

// TopAlbums fetches the user's most played albums for a period
// ("7day", "1month", "12month", ...).
func (c *Client) TopAlbums(ctx context.Context, period string, limit int) ([]TopAlbum, error) {
	params := url.Values{}
	params.Set("method", "user.gettopalbums")
	params.Set("period", period)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var parsed topAlbumsResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}
	return parsed.TopAlbums.Album, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("user", c.user)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	reqURL := c.baseURL + "?" + params.Encode()

	log.Debug().Str("method", params.Get("method")).Msg("Fetching from Last.fm")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
