// Package preview manages the single global audio preview slot.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Status constants for the preview transport.
const (
	StatusIdle      = "idle"
	StatusResolving = "resolving"
	StatusPlaying   = "playing"
	StatusPaused    = "paused"
)

// ErrNoPreview indicates the lookup found nothing for either query form.
// It is recoverable: the caller surfaces a notice, not a fatal error.
// Lookup timeouts are reported the same way.
var ErrNoPreview = errors.New("no preview available")

// Track is one result from the external preview lookup service.
type Track struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"` // playable audio URL
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Title       string `json:"title"`
		CoverSmall  string `json:"cover_small"`
		CoverMedium string `json:"cover_medium"`
	} `json:"album"`
}

// ActivePreview is the single system-wide preview slot. At most one exists;
// starting a new preview implicitly replaces it.
type ActivePreview struct {
	Track Track `json:"track"`
	Year  int   `json:"year"`
}

// Lookup is the external preview search service. An empty result slice is a
// valid, non-error response meaning "no match".
type Lookup interface {
	SearchTracks(ctx context.Context, query string) ([]Track, error)
}

// LookupTimeout bounds each individual lookup request.
const LookupTimeout = 10 * time.Second

// Controller drives the preview transport:
// idle -> resolving -> playing -> {paused, idle}. Track end behaves exactly
// like an explicit stop.
type Controller struct {
	mu         sync.Mutex
	lookup     Lookup
	status     string
	active     *ActivePreview
	generation uint64
	onChange   func()
}

// NewController creates an idle controller using the given lookup service.
func NewController(lookup Lookup) *Controller {
	return &Controller{
		lookup: lookup,
		status: StatusIdle,
	}
}

// OnChange registers a callback invoked after every observable transition.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Status returns the current transport status.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Active returns the current preview slot, or nil.
func (c *Controller) Active() *ActivePreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Play resolves a preview for the album and claims the active slot.
// The lookup runs with the artist-qualified query first and falls back once
// to an album-only query; overly specific artist matching on noisy metadata
// frequently yields no hits. Both queries empty means ErrNoPreview and the
// slot stays untouched.
//
// A newer Play supersedes any in-flight lookup: each invocation takes a
// fresh generation and a stale lookup's result is discarded instead of
// clobbering the newer request's outcome.
func (c *Controller) Play(ctx context.Context, artist, album string, year int) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	wasPaused := c.status == StatusPaused
	c.status = StatusResolving
	c.mu.Unlock()
	c.notify()

	requestID := uuid.NewString()
	logger := log.With().
		Str("requestId", requestID).
		Str("artist", artist).
		Str("album", album).
		Logger()

	track, err := c.resolve(ctx, fmt.Sprintf("artist:%q album:%q", artist, album))
	if err == nil && track == nil {
		logger.Debug().Msg("No preview with artist query, retrying album-only")
		track, err = c.resolve(ctx, fmt.Sprintf("album:%q", album))
	}

	c.mu.Lock()
	if gen != c.generation {
		// Superseded while resolving; a newer Play owns the slot now.
		c.mu.Unlock()
		logger.Debug().Msg("Discarding stale preview lookup result")
		return nil
	}

	if err != nil || track == nil {
		// A failed resolve leaves any prior preview exactly as it was,
		// including a paused one.
		c.status = StatusIdle
		if c.active != nil {
			c.status = StatusPlaying
			if wasPaused {
				c.status = StatusPaused
			}
		}
		c.mu.Unlock()
		c.notify()
		if err != nil {
			logger.Warn().Err(err).Msg("Preview lookup failed")
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrNoPreview
			}
			return err
		}
		logger.Info().Msg("No preview available")
		return ErrNoPreview
	}

	// Atomically replace any existing preview; stopping the prior playback
	// is implicit in handing the client a new slot.
	c.active = &ActivePreview{Track: *track, Year: year}
	c.status = StatusPlaying
	c.mu.Unlock()
	c.notify()

	logger.Info().Str("title", track.Title).Msg("Preview playing")
	return nil
}

// resolve runs one bounded lookup and returns the first track, nil when the
// service reports no match. The context timeout guarantees the request is
// released on every exit path.
func (c *Controller) resolve(ctx context.Context, query string) (*Track, error) {
	ctx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	tracks, err := c.lookup.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

// Pause pauses the active preview.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.status == StatusPlaying {
		c.status = StatusPaused
	}
	c.mu.Unlock()
	c.notify()
}

// Resume resumes a paused preview.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.status == StatusPaused {
		c.status = StatusPlaying
	}
	c.mu.Unlock()
	c.notify()
}

// Stop clears the active preview regardless of the current sub-state and
// invalidates any in-flight lookup.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.generation++
	c.active = nil
	c.status = StatusIdle
	c.mu.Unlock()
	c.notify()
}

// TrackEnded handles natural end of the preview clip, identically to Stop.
func (c *Controller) TrackEnded() {
	c.Stop()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
