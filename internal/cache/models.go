package cache

import (
	"database/sql"
	"time"
)

// Record is one cached media item: the raw audio bytes plus, once
// transcription has run, the derived subtitle text.
type Record struct {
	ID                string
	Filename          string
	SizeBytes         int64
	Audio             []byte
	CreatedAt         time.Time
	TranscriptText    string
	TranscriptSavedAt time.Time
}

// HasTranscript reports whether a non-blank transcript is attached.
func (r *Record) HasTranscript() bool {
	if r == nil {
		return false
	}
	return len(r.TranscriptText) > 0 && !isBlank(r.TranscriptText)
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

const recordColumns = "id, filename, size_bytes, audio, created_at, transcript_text, transcript_saved_at"

// metaColumns omits the audio blob for listings.
const metaColumns = "id, filename, size_bytes, created_at, transcript_text, transcript_saved_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		filename        string
		sizeBytes       int64
		audio           []byte
		createdRaw      string
		transcriptText  sql.NullString
		transcriptSaved sql.NullString
	)

	if err := scanner.Scan(&id, &filename, &sizeBytes, &audio, &createdRaw, &transcriptText, &transcriptSaved); err != nil {
		return nil, err
	}

	record := &Record{
		ID:             id,
		Filename:       filename,
		SizeBytes:      sizeBytes,
		Audio:          audio,
		TranscriptText: transcriptText.String,
	}
	record.CreatedAt = parseTimestamp(createdRaw)
	if transcriptSaved.Valid {
		record.TranscriptSavedAt = parseTimestamp(transcriptSaved.String)
	}
	return record, nil
}

func scanMeta(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              string
		filename        string
		sizeBytes       int64
		createdRaw      string
		transcriptText  sql.NullString
		transcriptSaved sql.NullString
	)

	if err := scanner.Scan(&id, &filename, &sizeBytes, &createdRaw, &transcriptText, &transcriptSaved); err != nil {
		return nil, err
	}

	record := &Record{
		ID:             id,
		Filename:       filename,
		SizeBytes:      sizeBytes,
		TranscriptText: transcriptText.String,
	}
	record.CreatedAt = parseTimestamp(createdRaw)
	if transcriptSaved.Valid {
		record.TranscriptSavedAt = parseTimestamp(transcriptSaved.String)
	}
	return record, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}
