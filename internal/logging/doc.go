// Package logging centralizes slog construction and the structured field
// vocabulary used across the pipeline. Components receive a *slog.Logger and
// never construct handlers themselves.
package logging
