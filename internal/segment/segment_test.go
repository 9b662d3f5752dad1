package segment

import (
	"strings"
	"testing"
)

func TestSentenceModeGroupsThreeSentences(t *testing.T) {
	s := NewSplitter(ModeSentence, 0)
	segs := s.Split("Hello there. How are you? Fine, thanks.")
	if len(segs) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(segs), segs)
	}
	if segs[0].Text != "Hello there. How are you? Fine, thanks." {
		t.Fatalf("unexpected chunk: %q", segs[0].Text)
	}
}

func TestSentenceModeNeverStartsFourthSentence(t *testing.T) {
	s := NewSplitter(ModeSentence, 0)
	segs := s.Split("A one. B two. C three. D four.")
	if len(segs) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(segs), segs)
	}
	if segs[0].Text != "A one. B two. C three." {
		t.Fatalf("unexpected first chunk: %q", segs[0].Text)
	}
	if segs[1].Text != "D four." {
		t.Fatalf("unexpected trailing chunk: %q", segs[1].Text)
	}
}

func TestSentenceModeFlushesOnLength(t *testing.T) {
	long := strings.Repeat("word ", 18) + "end."
	s := NewSplitter(ModeSentence, 0)
	segs := s.Split(long + " " + long + " Short one.")
	if len(segs) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(segs))
	}
	// Two sentences over 150 chars flush together; the short one trails.
	if !strings.HasSuffix(segs[0].Text, "end.") || strings.Contains(segs[0].Text, "Short") {
		t.Fatalf("unexpected first chunk: %q", segs[0].Text)
	}
	if segs[1].Text != "Short one." {
		t.Fatalf("unexpected second chunk: %q", segs[1].Text)
	}
}

func TestSentenceModeFlushesTrailingPartial(t *testing.T) {
	s := NewSplitter(ModeSentence, 0)
	segs := s.Split("Hello there. And then")
	if len(segs) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(segs))
	}
	if segs[0].Text != "Hello there. And then" {
		t.Fatalf("trailing text dropped: %q", segs[0].Text)
	}
}

func TestParagraphMode(t *testing.T) {
	s := NewSplitter(ModeParagraph, 0)
	segs := s.Split("Line one\n\nLine two\n")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(segs), segs)
	}
	if segs[0].Text != "Line one" || segs[1].Text != "Line two" {
		t.Fatalf("unexpected segments: %v", segs)
	}
}

func TestParagraphModeMarkerCadencePersistsAcrossCalls(t *testing.T) {
	s := NewSplitter(ModeParagraph, 3)

	first := s.Split("A\nB")
	if len(first) != 2 || first[0].Marker || first[1].Marker {
		t.Fatalf("unexpected first batch: %v", first)
	}

	second := s.Split("C\nD")
	if len(second) != 3 {
		t.Fatalf("expected marker after third cumulative segment, got %v", second)
	}
	if second[0].Text != "C" || !second[1].Marker || second[2].Text != "D" {
		t.Fatalf("unexpected second batch: %v", second)
	}
	if second[1].Text != MarkerText {
		t.Fatalf("unexpected marker text: %q", second[1].Text)
	}
}

func TestEmptyInputYieldsNothing(t *testing.T) {
	for _, mode := range []Mode{ModeSentence, ModeParagraph} {
		s := NewSplitter(mode, 3)
		if segs := s.Split("   \n\t "); segs != nil {
			t.Fatalf("mode %s: expected no segments, got %v", mode, segs)
		}
	}
}

func TestSegmentationIsLosslessOverContent(t *testing.T) {
	inputs := []string{
		"Hello there. How are you? Fine, thanks.",
		"One sentence without terminal punctuation",
		"First paragraph\n\nSecond paragraph\nThird",
		"A one. B two. C three. D four. E five.",
	}
	for _, mode := range []Mode{ModeSentence, ModeParagraph} {
		for _, input := range inputs {
			s := NewSplitter(mode, 0)
			var parts []string
			for _, seg := range s.Split(input) {
				if !seg.Marker {
					parts = append(parts, seg.Text)
				}
			}
			got := squash(strings.Join(parts, " "))
			want := squash(input)
			if got != want {
				t.Fatalf("mode %s: content altered\n in: %q\nout: %q", mode, want, got)
			}
		}
	}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
