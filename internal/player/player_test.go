package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"autosub/internal/subtitle"
)

type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeDisplay struct {
	mu     sync.Mutex
	events []string
}

func (d *fakeDisplay) Show(text string) {
	d.mu.Lock()
	d.events = append(d.events, "show:"+text)
	d.mu.Unlock()
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	d.events = append(d.events, "clear")
	d.mu.Unlock()
}

func (d *fakeDisplay) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	copy(out, d.events)
	return out
}

func (d *fakeDisplay) last() string {
	events := d.snapshot()
	if len(events) == 0 {
		return ""
	}
	return events[len(events)-1]
}

type fakeSettings struct {
	mu      sync.Mutex
	visible bool
}

func (s *fakeSettings) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *fakeSettings) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

func testCues() []subtitle.Cue {
	return []subtitle.Cue{
		{Start: 1.0, End: 2.0, Text: "first"},
		{Start: 3.0, End: 4.0, Text: "second"},
	}
}

func TestActiveCueBoundsInclusive(t *testing.T) {
	cues := testCues()
	cases := []struct {
		t      float64
		want   string
		active bool
	}{
		{0.999, "", false},
		{1.0, "first", true},
		{1.5, "first", true},
		{2.0, "first", true},
		{2.001, "", false},
		{3.0, "second", true},
		{4.5, "", false},
	}
	for _, tc := range cases {
		cue, ok := ActiveCue(cues, tc.t)
		if ok != tc.active {
			t.Errorf("ActiveCue(%v): active = %v, want %v", tc.t, ok, tc.active)
			continue
		}
		if ok && cue.Text != tc.want {
			t.Errorf("ActiveCue(%v) = %q, want %q", tc.t, cue.Text, tc.want)
		}
	}
}

func TestActiveCueEmptyList(t *testing.T) {
	if _, ok := ActiveCue(nil, 1.0); ok {
		t.Error("expected no active cue for empty list")
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestSynchronizer() (*Synchronizer, *fakeClock, *fakeDisplay, *fakeSettings) {
	clock := &fakeClock{}
	display := &fakeDisplay{}
	settings := &fakeSettings{visible: true}
	s := New(clock, display, settings, WithTickInterval(time.Millisecond))
	return s, clock, display, settings
}

func TestSynchronizerShowsAndClears(t *testing.T) {
	s, clock, display, _ := newTestSynchronizer()
	s.Load(testCues())

	clock.set(1.5)
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return display.last() == "show:first" })

	clock.set(2.5)
	waitFor(t, func() bool { return display.last() == "clear" })

	clock.set(3.2)
	waitFor(t, func() bool { return display.last() == "show:second" })
}

func TestSynchronizerPushesOnlyOnChange(t *testing.T) {
	s, clock, display, _ := newTestSynchronizer()
	s.Load(testCues())
	clock.set(1.5)
	s.Start(context.Background())

	waitFor(t, func() bool { return display.last() == "show:first" })
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	shows := 0
	for _, evt := range display.snapshot() {
		if evt == "show:first" {
			shows++
		}
	}
	if shows != 1 {
		t.Errorf("expected a single show event, got %d", shows)
	}
}

func TestSynchronizerHiddenClearsDisplay(t *testing.T) {
	s, clock, display, settings := newTestSynchronizer()
	s.Load(testCues())
	clock.set(1.5)
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return display.last() == "show:first" })

	settings.SetVisible(false)
	waitFor(t, func() bool { return display.last() == "clear" })

	settings.SetVisible(true)
	waitFor(t, func() bool { return display.last() == "show:first" })
}

func TestSynchronizerRestartCancelsPreviousLoop(t *testing.T) {
	s, clock, display, _ := newTestSynchronizer()
	s.Load(testCues())
	clock.set(1.5)

	s.Start(context.Background())
	waitFor(t, func() bool { return display.last() == "show:first" })

	// Restarting must not leave two loops racing over the display.
	s.Start(context.Background())
	defer s.Stop()

	clock.set(3.5)
	waitFor(t, func() bool { return display.last() == "show:second" })
}

func TestSynchronizerStopClearsAndIsIdempotent(t *testing.T) {
	s, clock, display, _ := newTestSynchronizer()
	s.Load(testCues())
	clock.set(1.5)
	s.Start(context.Background())

	waitFor(t, func() bool { return display.last() == "show:first" })
	s.Stop()
	if display.last() != "clear" {
		t.Errorf("expected clear on stop, got %q", display.last())
	}
	s.Stop() // second stop must not panic or block
}

func TestClearCuesReturnsToIdle(t *testing.T) {
	s, clock, display, _ := newTestSynchronizer()
	s.Load(testCues())
	clock.set(1.5)
	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return display.last() == "show:first" })

	s.ClearCues()
	waitFor(t, func() bool { return display.last() == "clear" })
}
