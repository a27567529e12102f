package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"autosub/internal/services"
)

// Stream is one downloadable audio rendition.
type Stream struct {
	URL       string
	BackupURL []string
	Bandwidth int64
	MimeType  string
}

// Source yields the candidate audio streams for an item.
type Source interface {
	Streams(ctx context.Context) ([]Stream, error)
}

// ManifestSource serves streams parsed from a playinfo-style DASH
// manifest. The manifest is read once at construction; Streams never
// touches the network.
type ManifestSource struct {
	streams []Stream
}

type manifestDocument struct {
	Data *manifestDash `json:"data"`
	Dash *dashBlock    `json:"dash"`
}

type manifestDash struct {
	Dash *dashBlock `json:"dash"`
}

type dashBlock struct {
	Audio []dashStream `json:"audio"`
}

type dashStream struct {
	BaseURL   string   `json:"baseUrl"`
	BackupURL []string `json:"backupUrl"`
	Bandwidth int64    `json:"bandwidth"`
	MimeType  string   `json:"mimeType"`
}

// ParseManifest decodes a playinfo JSON document. Both the wrapped form
// (data.dash.audio) and the bare form (dash.audio) are accepted.
func ParseManifest(r io.Reader) (*ManifestSource, error) {
	var doc manifestDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "media", "parse_manifest", "decode playinfo JSON", err)
	}
	block := doc.Dash
	if doc.Data != nil && doc.Data.Dash != nil {
		block = doc.Data.Dash
	}
	if block == nil {
		return nil, services.Wrap(services.ErrExtraction, "media", "parse_manifest", "manifest has no dash block", nil)
	}
	source := &ManifestSource{}
	for _, entry := range block.Audio {
		url := strings.TrimSpace(entry.BaseURL)
		if url == "" {
			continue
		}
		source.streams = append(source.streams, Stream{
			URL:       url,
			BackupURL: entry.BackupURL,
			Bandwidth: entry.Bandwidth,
			MimeType:  entry.MimeType,
		})
	}
	return source, nil
}

// LoadManifest reads a manifest document from disk.
func LoadManifest(path string) (*ManifestSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "media", "load_manifest", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()
	return ParseManifest(file)
}

// Streams implements Source.
func (s *ManifestSource) Streams(context.Context) ([]Stream, error) {
	if s == nil || len(s.streams) == 0 {
		return nil, services.Wrap(services.ErrExtraction, "media", "streams", "manifest carries no audio streams", nil)
	}
	out := make([]Stream, len(s.streams))
	copy(out, s.streams)
	return out, nil
}

// SelectBest picks the highest-bandwidth stream.
func SelectBest(streams []Stream) (Stream, error) {
	if len(streams) == 0 {
		return Stream{}, services.Wrap(services.ErrExtraction, "media", "select_stream", "no audio streams available", nil)
	}
	best := streams[0]
	for _, candidate := range streams[1:] {
		if candidate.Bandwidth > best.Bandwidth {
			best = candidate
		}
	}
	return best, nil
}

// SanitizeFilename strips the characters that are unsafe in filenames
// on common filesystems.
func SanitizeFilename(title string) string {
	replacer := strings.NewReplacer(
		"\\", "",
		"/", "",
		":", "",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	return strings.TrimSpace(replacer.Replace(title))
}
