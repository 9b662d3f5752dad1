// Package transcript keeps the append-only log of displayed turns.
package transcript

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/panyeroa1/orbit-translator/internal/bus"
	"github.com/panyeroa1/orbit-translator/internal/protocol"
)

// Turn is one displayed transcript entry.
type Turn struct {
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	SourceText string    `json:"source_text,omitempty"`
	Final      bool      `json:"final"`
	Timestamp  time.Time `json:"timestamp"`
}

// Log is an append-only transcript consumed by UI collaborators. Turns are
// never mutated or removed once appended.
type Log struct {
	mu      sync.Mutex
	turns   []Turn
	publish func(Turn)
	clock   func() time.Time
}

// NewLog returns an empty transcript log. publish, when non-nil, is invoked
// for every appended turn.
func NewLog(publish func(Turn)) *Log {
	return &Log{publish: publish, clock: time.Now}
}

// AddTurn appends a turn, stamping the current time when none is set.
func (l *Log) AddTurn(t Turn) {
	l.mu.Lock()
	if t.Timestamp.IsZero() {
		t.Timestamp = l.clock().UTC()
	}
	l.turns = append(l.turns, t)
	publish := l.publish
	l.mu.Unlock()

	if publish != nil {
		publish(t)
	}
}

// Turns returns a snapshot of the log.
func (l *Log) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len reports the number of appended turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// BusPublisher fans every appended turn out on the bus so remote UIs can
// follow the transcript. Publish failures are logged and dropped.
func BusPublisher(client *bus.Client, logger *slog.Logger) func(Turn) {
	return func(t Turn) {
		msg := protocol.TranscriptTurn{
			Role:       t.Role,
			Text:       t.Text,
			SourceText: t.SourceText,
			Final:      t.Final,
			Timestamp:  t.Timestamp,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Warn("failed to marshal transcript turn", slog.String("error", err.Error()))
			return
		}
		if err := client.Conn().Publish(protocol.SubjectTranscriptTurn, data); err != nil {
			logger.Warn("failed to publish transcript turn", slog.String("error", err.Error()))
		}
	}
}
