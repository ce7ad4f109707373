package socketio

import (
	"sync"
	"time"
)

// BroadcastDebouncer collapses rapid state changes into batched broadcasts.
// A burst of filter updates (one per search keystroke) within the debounce
// window results in a single gallery broadcast; heart toggles batch the
// same way. Auto-play evaluation is not routed through here - it runs
// synchronously in the gallery service on every state change.
type BroadcastDebouncer struct {
	window          time.Duration
	galleryCallback func()
	heartsCallback  func()

	mu             sync.Mutex
	pendingGallery bool
	pendingHearts  bool
	timer          *time.Timer
	stopped        bool
}

// NewBroadcastDebouncer creates a debouncer with the given window duration.
// galleryCallback fires when the visible set needs rebroadcasting,
// heartsCallback when the favorites list does.
func NewBroadcastDebouncer(window time.Duration, galleryCallback, heartsCallback func()) *BroadcastDebouncer {
	return &BroadcastDebouncer{
		window:          window,
		galleryCallback: galleryCallback,
		heartsCallback:  heartsCallback,
	}
}

// Trigger records that the given channel changed. The broadcast callbacks
// are deferred until the window elapses without further triggers.
func (d *BroadcastDebouncer) Trigger(channel string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	switch channel {
	case "gallery":
		d.pendingGallery = true
	case "hearts":
		d.pendingHearts = true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *BroadcastDebouncer) flush() {
	d.mu.Lock()
	doGallery := d.pendingGallery
	doHearts := d.pendingHearts
	d.pendingGallery = false
	d.pendingHearts = false
	d.mu.Unlock()

	if doGallery && d.galleryCallback != nil {
		d.galleryCallback()
	}
	if doHearts && d.heartsCallback != nil {
		d.heartsCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *BroadcastDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingGallery = false
	d.pendingHearts = false
}
