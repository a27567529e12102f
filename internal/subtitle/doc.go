// Package subtitle turns recognized word streams into display cues and
// handles the SRT interchange format: segmentation by punctuation, length,
// and pause triggers, plus deterministic timestamp formatting and parsing.
package subtitle
