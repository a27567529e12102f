// Package media resolves the downloadable audio for an item. A Source
// produces candidate streams (currently from a playinfo-style DASH
// manifest), SelectBest picks the richest rendition, and Fetcher pulls
// the bytes with the referer and user-agent headers the CDN checks.
package media
