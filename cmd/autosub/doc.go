// Package main hosts the autosub CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full transcription pipeline
// (run), cache inspection and pruning (cache), terminal subtitle replay
// (play), and configuration scaffolding (config). Configuration
// resolution and logger construction are centralized in commandContext
// so subcommands stay declarative; the heavy lifting lives in the
// internal packages.
package main
