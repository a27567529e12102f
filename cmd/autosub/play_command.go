package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"autosub/internal/player"
	"autosub/internal/subtitle"
)

// wallClock maps wall time onto a playback position.
type wallClock struct {
	start  time.Time
	offset float64
	speed  float64
}

func (c *wallClock) Now() float64 {
	return c.offset + time.Since(c.start).Seconds()*c.speed
}

// terminalDisplay renders cue text on the terminal. On a tty it rewrites
// a single line; otherwise each cue is printed once.
type terminalDisplay struct {
	mu  sync.Mutex
	out io.Writer
	tty bool
}

func (d *terminalDisplay) Show(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tty {
		fmt.Fprintf(d.out, "\r\033[K%s", text)
		return
	}
	fmt.Fprintln(d.out, text)
}

func (d *terminalDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tty {
		fmt.Fprint(d.out, "\r\033[K")
	}
}

// configSettings holds the visibility preference loaded from config.
type configSettings struct {
	mu      sync.Mutex
	visible bool
}

func (s *configSettings) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *configSettings) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var offset float64
	var speed float64

	cmd := &cobra.Command{
		Use:   "play <item-id>",
		Short: "Replay a cached transcript against a wall clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if speed <= 0 {
				return fmt.Errorf("--speed must be positive")
			}

			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if record == nil || !record.HasTranscript() {
				return fmt.Errorf("item %s has no cached transcript; run `autosub run %s` first", args[0], args[0])
			}

			cues, err := subtitle.ParseSRT(record.TranscriptText)
			if err != nil {
				return err
			}
			if len(cues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Transcript has no cues")
				return nil
			}

			display := &terminalDisplay{
				out: cmd.OutOrStdout(),
				tty: isatty.IsTerminal(os.Stdout.Fd()),
			}
			settings := &configSettings{visible: cfg.Player.SubtitlesVisible}
			clock := &wallClock{start: time.Now(), offset: offset, speed: speed}

			synchronizer := player.New(clock, display, settings,
				player.WithTickInterval(time.Duration(cfg.Player.TickIntervalMS)*time.Millisecond))
			synchronizer.Load(cues)

			playCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			synchronizer.Start(playCtx)
			defer synchronizer.Stop()

			remaining := (cues[len(cues)-1].End - offset) / speed
			if remaining <= 0 {
				return nil
			}
			select {
			case <-playCtx.Done():
			case <-time.After(time.Duration(remaining*float64(time.Second)) + time.Second):
			}
			if display.tty {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&offset, "offset", 0, "Start position in seconds")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Playback speed multiplier")
	return cmd
}
