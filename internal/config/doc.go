// Package config loads, normalizes, and validates the TOML configuration
// that drives the transcription pipeline: cache quota, provider credentials,
// segmentation thresholds, and playback settings.
package config
