package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/panyeroa1/orbit-translator/internal/config"
	"github.com/panyeroa1/orbit-translator/internal/segment"
	"github.com/panyeroa1/orbit-translator/internal/store"
	"github.com/panyeroa1/orbit-translator/internal/transcript"
	"github.com/panyeroa1/orbit-translator/internal/voice"
)

func segmentFor(text string) segment.Segment {
	return segment.Segment{Text: text}
}

func repeatWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSpeechConfig() config.SpeechConfig {
	return config.SpeechConfig{
		Style:         "natural",
		Mode:          "paragraph",
		MarkerEvery:   0,
		Damping:       0.6,
		DelayCapMS:    8000,
		JitterMS:      0,
		MarkerDelayMS: 600,
	}
}

func newTestBridge(t *testing.T, cfg config.SpeechConfig, style Style) (*Bridge, *voice.MockSession, *transcript.Log) {
	t.Helper()
	session := voice.NewMockSession()
	log := transcript.NewLog(nil)
	b := New(context.Background(), cfg, "session-test", session, log, NewSettings(style), newLogger())
	b.sleep = func(context.Context, time.Duration) {}
	t.Cleanup(b.Close)
	return b, session, log
}

func waitIdle(t *testing.T, b *Bridge) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !b.Draining() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("drain loop did not go idle")
}

func TestIngestSegmentsAndDispatchesInOrder(t *testing.T) {
	b, session, log := newTestBridge(t, testSpeechConfig(), StyleNatural)

	b.Ingest(&store.Record{ID: "r1", Text: "Line one\n\nLine two"})
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(sent))
	}
	if sent[0].Text != "Line one" || sent[1].Text != "Line two" {
		t.Fatalf("unexpected dispatch order: %v", sent)
	}
	if log.Len() != 1 {
		t.Fatalf("expected 1 transcript turn, got %d", log.Len())
	}
}

func TestIngestDeduplicatesByRecordID(t *testing.T) {
	b, session, log := newTestBridge(t, testSpeechConfig(), StyleNatural)

	rec := &store.Record{ID: "r1", Text: "Only once"}
	b.Ingest(rec)
	b.Ingest(rec) // second delivery from the racing trigger
	waitIdle(t, b)

	if got := len(session.Sent()); got != 1 {
		t.Fatalf("expected 1 dispatch, got %d", got)
	}
	if log.Len() != 1 {
		t.Fatalf("expected 1 transcript turn, got %d", log.Len())
	}
}

func TestRecordsDispatchInIngestOrder(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleNatural)

	b.Ingest(&store.Record{ID: "r1", Text: "One\n\nTwo"})
	b.Ingest(&store.Record{ID: "r2", Text: "Three"})
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 dispatches, got %d", len(sent))
	}
	for i, want := range []string{"One", "Two", "Three"} {
		if sent[i].Text != want {
			t.Fatalf("dispatch %d: expected %q, got %q", i, want, sent[i].Text)
		}
	}
}

func TestMarkerCadencePersistsAcrossRecords(t *testing.T) {
	cfg := testSpeechConfig()
	cfg.MarkerEvery = 3
	b, session, _ := newTestBridge(t, cfg, StyleNatural)

	b.Ingest(&store.Record{ID: "r1", Text: "A\n\nB"})
	waitIdle(t, b)
	b.Ingest(&store.Record{ID: "r2", Text: "C\n\nD"})
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 5 {
		t.Fatalf("expected 5 dispatches, got %d: %v", len(sent), sent)
	}
	if !sent[3].Marker {
		t.Fatalf("expected marker after third cumulative segment, got %v", sent[3])
	}
	if sent[3].Text == "" || sent[4].Text != "D" {
		t.Fatalf("unexpected tail: %v", sent[3:])
	}
}

func TestGateClosedLeavesQueueIntact(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleNatural)
	session.SetStatus(voice.StatusDisconnected)

	b.Ingest(&store.Record{ID: "r1", Text: "One\n\nTwo"})
	waitIdle(t, b)

	if got := len(session.Sent()); got != 0 {
		t.Fatalf("expected no dispatches while disconnected, got %d", got)
	}
	if got := b.PendingSegments(); got != 2 {
		t.Fatalf("expected 2 queued segments preserved, got %d", got)
	}

	session.SetStatus(voice.StatusConnected)
	b.Resume()
	waitIdle(t, b)

	if got := len(session.Sent()); got != 2 {
		t.Fatalf("expected queued segments dispatched after reconnect, got %d", got)
	}
	if got := b.PendingSegments(); got != 0 {
		t.Fatalf("expected empty queue, got %d", got)
	}
}

func TestMidDrainDisconnectHaltsBeforeNextDispatch(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleNatural)
	b.sleep = func(context.Context, time.Duration) {
		session.SetStatus(voice.StatusDisconnected)
	}

	b.Ingest(&store.Record{ID: "r1", Text: "One\n\nTwo\n\nThree"})
	waitIdle(t, b)

	if got := len(session.Sent()); got != 1 {
		t.Fatalf("expected exactly 1 dispatch before the halt, got %d", got)
	}
	if got := b.PendingSegments(); got != 2 {
		t.Fatalf("expected 2 undispatched segments preserved, got %d", got)
	}
}

func TestDispatchFailureHaltsWithoutReplay(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleNatural)
	session.FailWith(errors.New("boom"))

	b.Ingest(&store.Record{ID: "r1", Text: "One\n\nTwo"})
	waitIdle(t, b)

	if got := len(session.Sent()); got != 0 {
		t.Fatalf("expected no recorded dispatches, got %d", got)
	}
	// The failed segment is committed; only the remainder stays queued.
	if got := b.PendingSegments(); got != 1 {
		t.Fatalf("expected 1 segment preserved, got %d", got)
	}

	session.FailWith(nil)
	b.Resume()
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 1 || sent[0].Text != "Two" {
		t.Fatalf("expected only the preserved segment, got %v", sent)
	}
}

func TestDramaticStyleWrapsDispatch(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleDramatic)

	b.Ingest(&store.Record{ID: "r1", Text: "It is done"})
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(sent))
	}
	if sent[0].Text != "(slowly) It is done ... (long pause)" {
		t.Fatalf("unexpected wrapped text: %q", sent[0].Text)
	}
}

func TestStyleChangeAppliesToLaterSegmentsOnly(t *testing.T) {
	b, session, _ := newTestBridge(t, testSpeechConfig(), StyleNatural)
	b.sleep = func(context.Context, time.Duration) {
		b.settings.SetStyle(StyleDramatic)
	}

	b.Ingest(&store.Record{ID: "r1", Text: "One\n\nTwo"})
	waitIdle(t, b)

	sent := session.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(sent))
	}
	if sent[0].Text != "One" {
		t.Fatalf("first segment should keep the old style, got %q", sent[0].Text)
	}
	if sent[1].Text != "(slowly) Two ... (long pause)" {
		t.Fatalf("second segment should pick up the new style, got %q", sent[1].Text)
	}
}

func TestEmptyRecordIsIgnored(t *testing.T) {
	b, session, log := newTestBridge(t, testSpeechConfig(), StyleNatural)

	b.Ingest(nil)
	b.Ingest(&store.Record{ID: "r1", Text: "   \n "})

	if b.Draining() {
		t.Fatal("empty record must not start a drain")
	}
	if len(session.Sent()) != 0 || log.Len() != 0 {
		t.Fatal("empty record must produce no dispatch and no transcript turn")
	}
}

func TestDelayForUsesOriginalWordCount(t *testing.T) {
	cfg := testSpeechConfig()
	cfg.JitterMS = 0
	b, _, _ := newTestBridge(t, cfg, StyleNeutral)

	seg := segmentFor("three little words")
	delay := b.delayFor(seg, "three little words", StyleNeutral)
	// 3 words / 2.5 wps * 0.6 damping = 720ms + 500ms base buffer.
	if want := 1220 * time.Millisecond; delay != want {
		t.Fatalf("expected %v, got %v", want, delay)
	}

	long := b.delayFor(seg, repeatWords(1000), StyleNeutral)
	// Capped speaking time plus base buffer.
	if want := 8500 * time.Millisecond; long != want {
		t.Fatalf("expected cap to apply, got %v", long)
	}
}
