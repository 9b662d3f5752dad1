// Package speech paces transcript segments into a streaming voice session.
package speech

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/panyeroa1/orbit-translator/internal/config"
	"github.com/panyeroa1/orbit-translator/internal/protocol"
	"github.com/panyeroa1/orbit-translator/internal/segment"
	"github.com/panyeroa1/orbit-translator/internal/store"
	"github.com/panyeroa1/orbit-translator/internal/transcript"
	"github.com/panyeroa1/orbit-translator/internal/voice"
)

// Bridge owns the pacing queue and the single drain loop feeding the voice
// session. One bridge instance serves one playback session; nothing else
// mutates its queue or dedup state.
type Bridge struct {
	cfg       config.SpeechConfig
	sessionID string
	session   voice.Session
	log       *transcript.Log
	settings  *Settings
	splitter  *segment.Splitter
	logger    *slog.Logger
	metrics   *metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	pending  *Queue[segment.Segment]
	draining bool
	lastID   string

	sleep  func(context.Context, time.Duration)
	jitter func() time.Duration
}

func New(parent context.Context, cfg config.SpeechConfig, sessionID string, session voice.Session, log *transcript.Log, settings *Settings, logger *slog.Logger) *Bridge {
	ctx, cancel := context.WithCancel(parent)
	b := &Bridge{
		cfg:       cfg,
		sessionID: sessionID,
		session:   session,
		log:       log,
		settings:  settings,
		splitter:  segment.NewSplitter(segment.Mode(cfg.Mode), cfg.MarkerEvery),
		logger:    logger.With(slog.String("component", "speech-bridge")),
		metrics:   newMetrics(logger),
		ctx:       ctx,
		cancel:    cancel,
		pending:   NewQueue[segment.Segment](),
	}
	b.sleep = func(ctx context.Context, d time.Duration) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	b.jitter = func() time.Duration {
		if cfg.JitterMS <= 0 {
			return 0
		}
		return time.Duration(rand.IntN(cfg.JitterMS+1)) * time.Millisecond
	}
	return b
}

// Close stops the bridge. Queued segments are left in place; an in-flight
// delay is interrupted and the loop exits without dispatching further.
func (b *Bridge) Close() {
	b.cancel()
	b.wg.Wait()
}

// Ingest runs the shared ingestion path for both watcher triggers: reject
// empty text, suppress duplicate record ids, log the turn, segment and
// enqueue. Feeding the same record id twice enqueues its segments once.
func (b *Bridge) Ingest(rec *store.Record) {
	if rec == nil || strings.TrimSpace(rec.Text) == "" {
		return
	}

	b.mu.Lock()
	if rec.ID == b.lastID {
		b.mu.Unlock()
		b.metrics.duplicateSuppressed(b.ctx)
		return
	}
	b.lastID = rec.ID
	segs := b.splitter.Split(rec.Text)
	b.mu.Unlock()

	b.metrics.recordIngested(b.ctx)
	b.log.AddTurn(transcript.Turn{
		Role:       "assistant",
		Text:       rec.Text,
		SourceText: rec.SourceText,
		Final:      true,
	})

	b.Enqueue(segs)
}

// Enqueue appends segments at the tail and wakes the drain loop when it is
// idle. A wake request while the loop runs is a no-op.
func (b *Bridge) Enqueue(segs []segment.Segment) {
	if len(segs) == 0 {
		return
	}
	b.mu.Lock()
	for _, s := range segs {
		b.pending.Enqueue(s)
	}
	start := !b.draining
	if start {
		b.draining = true
	}
	b.mu.Unlock()

	if start {
		b.wg.Add(1)
		go b.drain()
	}
}

// Resume restarts the drain loop after a halt when segments are still
// queued and the gate is open. Called on reconnect and on poll ticks.
func (b *Bridge) Resume() {
	if b.session.Status() != voice.StatusConnected {
		return
	}
	b.mu.Lock()
	start := !b.draining && b.pending.Len() > 0
	if start {
		b.draining = true
	}
	b.mu.Unlock()

	if start {
		b.wg.Add(1)
		go b.drain()
	}
}

// Draining reports whether the drain loop is currently active.
func (b *Bridge) Draining() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draining
}

// PendingSegments reports the number of segments awaiting dispatch.
func (b *Bridge) PendingSegments() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.Len()
}

func (b *Bridge) drain() {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("drain loop failure", slog.Any("panic", r))
			b.mu.Lock()
			b.draining = false
			b.mu.Unlock()
		}
	}()

	for {
		if b.ctx.Err() != nil {
			b.halt("bridge closed")
			return
		}
		// The gate is re-checked every iteration, never cached, so a
		// mid-drain disconnect halts before the next dispatch.
		if b.session.Status() != voice.StatusConnected {
			b.halt("voice session disconnected")
			b.metrics.drainHalted(b.ctx)
			return
		}

		b.mu.Lock()
		seg, ok := b.pending.Peek()
		if !ok {
			b.draining = false
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		trimmed := strings.TrimSpace(seg.Text)
		if !seg.Marker && trimmed == "" {
			b.pop()
			continue
		}

		style := b.settings.Style()
		spoken := seg.Text
		if !seg.Marker {
			spoken = style.Wrap(trimmed)
		}

		err := b.session.Send(protocol.SpeechRequest{
			SessionID: b.sessionID,
			Text:      spoken,
			Marker:    seg.Marker,
			Style:     string(style),
			Timestamp: time.Now().UTC(),
		})
		// Removal is committed whether or not the dispatch succeeded; a
		// halted loop never replays the segment it already consumed.
		b.pop()
		if err != nil {
			b.logger.Warn("speech dispatch failed, pausing drain", slog.String("error", err.Error()))
			b.mu.Lock()
			b.draining = false
			b.mu.Unlock()
			b.metrics.drainHalted(b.ctx)
			return
		}
		b.metrics.segmentDispatched(b.ctx)

		b.sleep(b.ctx, b.delayFor(seg, trimmed, style))
	}
}

func (b *Bridge) pop() {
	b.mu.Lock()
	b.pending.Dequeue()
	b.mu.Unlock()
}

func (b *Bridge) halt(reason string) {
	b.mu.Lock()
	remaining := b.pending.Len()
	b.draining = false
	b.mu.Unlock()
	b.logger.Info("drain halted", slog.String("reason", reason), slog.Int("queued", remaining))
}

// delayFor computes the inter-segment pause. Word count uses the original
// segment text, not the style-wrapped form.
func (b *Bridge) delayFor(seg segment.Segment, text string, style Style) time.Duration {
	if seg.Marker {
		return time.Duration(b.cfg.MarkerDelayMS) * time.Millisecond
	}
	p := profileFor(style)
	words := len(strings.Fields(text))
	speakMS := float64(words) / p.wordsPerSec * 1000 * b.cfg.Damping
	if capMS := float64(b.cfg.DelayCapMS); speakMS > capMS {
		speakMS = capMS
	}
	return time.Duration(speakMS)*time.Millisecond + p.baseBuffer + b.jitter()
}
