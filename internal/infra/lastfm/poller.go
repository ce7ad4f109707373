package lastfm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval matches the original site's now-playing refresh.
const DefaultPollInterval = 10 * time.Second

// Poller refreshes the now-playing track at a fixed interval, no backoff.
// An overlap guard skips a tick while the previous fetch is still running,
// so a slow upstream cannot stack requests.
type Poller struct {
	client   *Client
	interval time.Duration
	onChange func(*Track)

	mu       sync.Mutex
	running  bool
	inFlight bool
	current  *Track
	stopCh   chan struct{}
}

// NewPoller creates a poller that invokes onChange whenever the now-playing
// track changes, including the change to nothing playing.
func NewPoller(client *Client, interval time.Duration, onChange func(*Track)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		onChange: onChange,
	}
}

// Current returns the last observed now-playing track, or nil.
func (p *Poller) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Start begins polling in the background. Starting twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	log.Info().Dur("interval", p.interval).Msg("Now-playing poller started")

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		// Poll immediately on start
		p.poll(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// Stop halts polling.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		log.Debug().Msg("Skipping now-playing poll, previous fetch still running")
		return
	}
	p.inFlight = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	track, err := p.client.NowPlaying(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Now-playing poll failed")
		return
	}

	p.mu.Lock()
	changed := !sameTrack(p.current, track)
	p.current = track
	onChange := p.onChange
	p.mu.Unlock()

	if changed && onChange != nil {
		onChange(track)
	}
}

func sameTrack(a, b *Track) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.Artist.Text == b.Artist.Text
}
