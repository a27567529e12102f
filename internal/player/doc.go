// Package player keeps a subtitle display in lockstep with a playback
// clock. The clock, the display, and the visibility setting are
// interfaces so the terminal renderer in cmd/autosub and the fakes in
// tests bind the same loop.
package player
