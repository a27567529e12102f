package subtitle

import (
	"fmt"
	"strconv"
	"strings"

	"autosub/internal/services"
)

// FormatTimestamp renders milliseconds as the SRT "HH:MM:SS,mmm" form.
// Hours are not capped at 24 so media longer than a day keeps monotonic
// timestamps.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// FormatSRT renders cues as sequential SRT blocks:
//
//	<index>\n<start> --> <end>\n<text>\n\n
//
// with a 1-based incrementing index.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(int64(cue.Start * 1000)))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(int64(cue.End * 1000)))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ParseSRT parses SRT text back into cues with seconds as floating point.
// Malformed blocks fail with a parse error rather than being skipped so a
// corrupted cached transcript is surfaced instead of silently truncated.
func ParseSRT(text string) ([]Cue, error) {
	content := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}

	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		cue, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		cues = append(cues, cue)
	}
	return cues, nil
}

func parseBlock(block string) (Cue, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return Cue{}, services.Wrap(services.ErrParse, "srt", "parse block",
			fmt.Sprintf("block %q has no timing line", truncate(block)), nil)
	}

	// First line is the cue index; it is regenerated on format, so only the
	// timing line is authoritative.
	timing := lines[1]
	parts := strings.Split(timing, "-->")
	if len(parts) != 2 {
		return Cue{}, services.Wrap(services.ErrParse, "srt", "parse timing",
			fmt.Sprintf("invalid timing line %q", timing), nil)
	}

	start, err := parseTimestamp(parts[0])
	if err != nil {
		return Cue{}, err
	}
	end, err := parseTimestamp(parts[1])
	if err != nil {
		return Cue{}, err
	}

	return Cue{
		Start: start,
		End:   end,
		Text:  strings.Join(lines[2:], "\n"),
	}, nil
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, services.Wrap(services.ErrParse, "srt", "parse timestamp", "empty timestamp", nil)
	}
	// Some producers use a period for milliseconds; the SRT standard is a comma.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, services.Wrap(services.ErrParse, "srt", "parse timestamp",
			fmt.Sprintf("invalid timestamp %q", value), nil)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, services.Wrap(services.ErrParse, "srt", "parse timestamp",
			fmt.Sprintf("invalid timestamp %q", value), nil)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, services.Wrap(services.ErrParse, "srt", "parse timestamp",
			fmt.Sprintf("invalid timestamp %q", value), nil)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

func truncate(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:40] + "..."
}
