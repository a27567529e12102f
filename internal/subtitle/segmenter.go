package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Default segmentation thresholds.
const (
	DefaultMaxChars = 20
	DefaultPauseGap = 500 * time.Millisecond
)

// punctuationFlush lists word texts that terminate a cue on their own:
// CJK and Latin sentence/clause punctuation.
var punctuationFlush = map[string]struct{}{
	"。": {}, "，": {}, "、": {}, "！": {}, "？": {}, "；": {}, "：": {}, "…": {},
	".": {}, ",": {}, "!": {}, "?": {}, ";": {}, ":": {},
}

// Segmenter converts a flat word stream into display cues.
type Segmenter struct {
	// MaxChars flushes the accumulating cue once its character count
	// reaches this threshold.
	MaxChars int
	// PauseGap flushes when the silence before the next word exceeds it.
	PauseGap time.Duration
}

// NewSegmenter returns a segmenter with the given thresholds; non-positive
// values fall back to the defaults.
func NewSegmenter(maxChars int, pauseGap time.Duration) *Segmenter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if pauseGap <= 0 {
		pauseGap = DefaultPauseGap
	}
	return &Segmenter{MaxChars: maxChars, PauseGap: pauseGap}
}

// Segment walks the word stream in order, accumulating words into a cue and
// flushing after a word when any trigger fires: the word is punctuation, the
// character budget is reached, the gap before the next word exceeds
// PauseGap, or the stream ends. The final forced flush guarantees no
// trailing words are dropped. Empty input yields no cues.
//
// Output invariants: cues are start-ascending and non-overlapping, and the
// concatenation of all cue texts equals the concatenation of all word texts.
func (s *Segmenter) Segment(words []Word) []Cue {
	if len(words) == 0 {
		return nil
	}

	pauseMS := s.PauseGap.Milliseconds()
	var cues []Cue
	var pending []Word
	chars := 0

	for i, word := range words {
		text := norm.NFC.String(word.Text)
		pending = append(pending, Word{Text: text, StartMS: word.StartMS, EndMS: word.EndMS})
		chars += utf8.RuneCountInString(text)

		flush := false
		if _, ok := punctuationFlush[text]; ok {
			flush = true
		}
		if chars >= s.MaxChars {
			flush = true
		}
		// Pause check looks ahead, so it cannot apply to the last word.
		if i+1 < len(words) && words[i+1].StartMS-word.EndMS > pauseMS {
			flush = true
		}
		if i == len(words)-1 {
			flush = true
		}

		if flush {
			cues = append(cues, cueFromWords(pending))
			pending = pending[:0]
			chars = 0
		}
	}

	return cues
}

func cueFromWords(words []Word) Cue {
	var text strings.Builder
	for _, word := range words {
		text.WriteString(word.Text)
	}
	return Cue{
		Start: float64(words[0].StartMS) / 1000,
		End:   float64(words[len(words)-1].EndMS) / 1000,
		Text:  text.String(),
	}
}
