// Package pipeline orchestrates the stages that turn an item into an
// SRT transcript: stream selection, audio download, remote
// transcription, and cue segmentation. Every stage consults the content
// cache first so reruns are idempotent and cheap.
package pipeline
