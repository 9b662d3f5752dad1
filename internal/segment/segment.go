// Package segment breaks transcript text into speakable segments.
package segment

import (
	"regexp"
	"strings"
)

// Mode selects the segmentation strategy.
type Mode string

const (
	ModeSentence  Mode = "sentence"
	ModeParagraph Mode = "paragraph"
)

// MarkerText is the pacing cue injected between paragraph segments.
const MarkerText = "(clears throat)"

// Sentence grouping thresholds: a chunk is flushed once it holds two
// sentences and 150 characters, or three sentences, or more than 250
// characters.
const (
	groupMinChars  = 150
	groupMaxChars  = 250
	groupSentences = 3
)

var (
	sentenceRegex  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	paragraphRegex = regexp.MustCompile(`\n+`)
)

// Segment is one unit of text queued for speech dispatch. Marker segments
// carry a pacing cue instead of transcript content.
type Segment struct {
	Text   string
	Marker bool
}

// Splitter segments incoming text. The marker counter persists across
// calls so marker cadence is counted cumulatively over a session.
type Splitter struct {
	mode        Mode
	markerEvery int
	sinceMarker int
}

// NewSplitter returns a Splitter for the given mode. markerEvery controls
// how many paragraph segments are emitted between markers; zero disables
// markers. It is ignored in sentence mode.
func NewSplitter(mode Mode, markerEvery int) *Splitter {
	return &Splitter{mode: mode, markerEvery: markerEvery}
}

// Split segments text according to the splitter's mode. Empty or
// whitespace-only input yields no segments.
func (s *Splitter) Split(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.mode == ModeSentence {
		return sentenceSegments(text)
	}
	return s.paragraphSegments(text)
}

func (s *Splitter) paragraphSegments(text string) []Segment {
	var segments []Segment
	for _, piece := range paragraphRegex.Split(text, -1) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		segments = append(segments, Segment{Text: piece})
		s.sinceMarker++
		if s.markerEvery > 0 && s.sinceMarker >= s.markerEvery {
			segments = append(segments, Segment{Text: MarkerText, Marker: true})
			s.sinceMarker = 0
		}
	}
	return segments
}

func sentenceSegments(text string) []Segment {
	sentences := splitSentences(text)

	var segments []Segment
	var chunk []string
	chars := 0

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		segments = append(segments, Segment{Text: strings.Join(chunk, " ")})
		chunk = nil
		chars = 0
	}

	for _, sentence := range sentences {
		chunk = append(chunk, sentence)
		chars += len(sentence)
		if len(chunk) > 1 {
			chars++ // joining space
		}
		switch {
		case len(chunk) >= 2 && chars >= groupMinChars:
			flush()
		case len(chunk) >= groupSentences:
			flush()
		case chars > groupMaxChars:
			flush()
		}
	}
	flush()
	return segments
}

// splitSentences breaks text on sentence-ending punctuation, keeping the
// punctuation with the sentence. Any trailing text without terminal
// punctuation becomes a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	consumed := 0
	for _, loc := range sentenceRegex.FindAllStringIndex(text, -1) {
		piece := strings.TrimSpace(text[loc[0]:loc[1]])
		if piece != "" {
			sentences = append(sentences, piece)
		}
		consumed = loc[1]
	}
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
