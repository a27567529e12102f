package subtitle

// Word is a single recognized token with absolute timeline offsets within
// the source item. Providers that emit sentence-relative offsets must
// normalize them before the words reach the segmenter.
type Word struct {
	Text    string
	StartMS int64
	EndMS   int64
}

// Cue is one subtitle entry. Start and End are seconds from the beginning
// of the item; Start <= End always holds for segmenter output, and cues in
// a sequence never overlap.
type Cue struct {
	Start float64
	End   float64
	Text  string
}
