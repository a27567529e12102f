package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"autosub/internal/logging"
	"autosub/internal/subtitle"
)

// DefaultTickInterval is how often the synchronizer samples the clock.
const DefaultTickInterval = 300 * time.Millisecond

// Clock reports the current playback position in seconds.
type Clock interface {
	Now() float64
}

// Display renders subtitle text somewhere the viewer can see it.
type Display interface {
	Show(text string)
	Clear()
}

// Settings exposes the viewer's visibility preference. Persistence is
// the caller's concern.
type Settings interface {
	Visible() bool
	SetVisible(visible bool)
}

// ActiveCue returns the first cue whose interval contains t. Both
// bounds are inclusive.
func ActiveCue(cues []subtitle.Cue, t float64) (subtitle.Cue, bool) {
	for _, cue := range cues {
		if t >= cue.Start && t <= cue.End {
			return cue, true
		}
	}
	return subtitle.Cue{}, false
}

// Synchronizer drives a Display from a Clock on a fixed tick. Starting
// a new loop cancels any previous one.
type Synchronizer struct {
	clock    Clock
	display  Display
	settings Settings
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cues   []subtitle.Cue
	cancel context.CancelFunc
	done   chan struct{}
}

// Option adjusts a Synchronizer.
type Option func(*Synchronizer)

// WithTickInterval overrides the sampling interval.
func WithTickInterval(interval time.Duration) Option {
	return func(s *Synchronizer) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Synchronizer. It starts idle; call Load then Start.
func New(clock Clock, display Display, settings Settings, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		clock:    clock,
		display:  display,
		settings: settings,
		interval: DefaultTickInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the cue list. Safe while the loop is running.
func (s *Synchronizer) Load(cues []subtitle.Cue) {
	copied := make([]subtitle.Cue, len(cues))
	copy(copied, cues)
	s.mu.Lock()
	s.cues = copied
	s.mu.Unlock()
}

// ClearCues drops the cue list and returns the display to idle.
func (s *Synchronizer) ClearCues() {
	s.mu.Lock()
	s.cues = nil
	s.mu.Unlock()
	s.display.Clear()
}

// Start launches the tick loop. A running loop is cancelled first, so
// at most one loop ever drives the display.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		done := s.done
		s.mu.Unlock()
		<-done
		s.mu.Lock()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Debug("playback sync started",
		logging.Duration("tick_interval", s.interval))
	go s.run(loopCtx, done)
}

// Stop cancels the loop and blocks until it exits. Idempotent.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Synchronizer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	shown := ""
	showing := false
	for {
		select {
		case <-ctx.Done():
			s.display.Clear()
			return
		case <-ticker.C:
			shown, showing = s.tick(shown, showing)
		}
	}
}

// tick pushes display updates only when the active text changes.
func (s *Synchronizer) tick(shown string, showing bool) (string, bool) {
	s.mu.Lock()
	cues := s.cues
	s.mu.Unlock()

	if !s.settings.Visible() {
		if showing {
			s.display.Clear()
		}
		return "", false
	}

	cue, ok := ActiveCue(cues, s.clock.Now())
	if !ok {
		if showing {
			s.display.Clear()
		}
		return "", false
	}
	if !showing || cue.Text != shown {
		s.display.Show(cue.Text)
	}
	return cue.Text, true
}
