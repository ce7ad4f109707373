package socketio

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDebouncerCollapsesBurst(t *testing.T) {
	var gallery atomic.Int32
	d := NewBroadcastDebouncer(20*time.Millisecond, func() { gallery.Add(1) }, nil)
	defer d.Stop()

	// One trigger per keystroke of a search term
	for i := 0; i < 10; i++ {
		d.Trigger("gallery")
	}

	waitFor(t, func() bool { return gallery.Load() > 0 }, "debounced broadcast never fired")
	time.Sleep(50 * time.Millisecond)
	if got := gallery.Load(); got != 1 {
		t.Errorf("gallery broadcast fired %d times for one burst, want 1", got)
	}
}

func TestDebouncerChannelsAreIndependent(t *testing.T) {
	var gallery, hearts atomic.Int32
	d := NewBroadcastDebouncer(10*time.Millisecond,
		func() { gallery.Add(1) },
		func() { hearts.Add(1) })
	defer d.Stop()

	d.Trigger("hearts")

	waitFor(t, func() bool { return hearts.Load() == 1 }, "hearts broadcast never fired")
	if gallery.Load() != 0 {
		t.Error("hearts trigger fired the gallery callback")
	}
}

func TestDebouncerBothChannelsInOneWindow(t *testing.T) {
	var gallery, hearts atomic.Int32
	d := NewBroadcastDebouncer(10*time.Millisecond,
		func() { gallery.Add(1) },
		func() { hearts.Add(1) })
	defer d.Stop()

	d.Trigger("gallery")
	d.Trigger("hearts")

	waitFor(t, func() bool { return gallery.Load() == 1 && hearts.Load() == 1 },
		"both channels should flush from the shared window")
}

func TestDebouncerStop(t *testing.T) {
	var fired atomic.Int32
	d := NewBroadcastDebouncer(10*time.Millisecond, func() { fired.Add(1) }, nil)

	d.Trigger("gallery")
	d.Stop()
	d.Trigger("gallery") // ignored after stop

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("callback fired %d times after Stop, want 0", fired.Load())
	}
}
