package speech

import (
	"fmt"
	"time"
)

// Style selects the speaking manner applied to segments at dispatch time.
type Style string

const (
	StyleNeutral  Style = "neutral"
	StyleBreathy  Style = "breathy"
	StyleDramatic Style = "dramatic"
	StyleNatural  Style = "natural"
)

// ParseStyle validates a style name from config or a bus update.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleNeutral, StyleBreathy, StyleDramatic, StyleNatural:
		return Style(s), nil
	default:
		return "", fmt.Errorf("unknown speaking style %q", s)
	}
}

// profile holds the per-style wrap cues and pacing parameters.
type profile struct {
	prefix      string
	suffix      string
	baseBuffer  time.Duration
	wordsPerSec float64
}

var profiles = map[Style]profile{
	StyleNeutral: {
		baseBuffer:  500 * time.Millisecond,
		wordsPerSec: 2.5,
	},
	StyleNatural: {
		baseBuffer:  700 * time.Millisecond,
		wordsPerSec: 2.3,
	},
	StyleBreathy: {
		prefix:      "(soft inhale)",
		suffix:      "(pause)",
		baseBuffer:  900 * time.Millisecond,
		wordsPerSec: 2.0,
	},
	StyleDramatic: {
		prefix:      "(slowly)",
		suffix:      "(long pause)",
		baseBuffer:  1300 * time.Millisecond,
		wordsPerSec: 1.7,
	},
}

func profileFor(style Style) profile {
	if p, ok := profiles[style]; ok {
		return p
	}
	return profiles[StyleNatural]
}

// Wrap applies the style's prefix and suffix cues to segment text. Neutral
// and natural styles pass text through unchanged.
func (s Style) Wrap(text string) string {
	p := profileFor(s)
	if p.prefix == "" && p.suffix == "" {
		return text
	}
	return p.prefix + " " + text + " ... " + p.suffix
}
