package protocol

import (
	"encoding/json"
	"time"
)

// RecordChange is broadcast on the bus whenever a row of the watched source
// table is inserted or updated. Row carries the raw row in one of the
// supported schema variants; the store package normalizes it.
type RecordChange struct {
	Event     string          `json:"event"` // INSERT or UPDATE
	Table     string          `json:"table"`
	Row       json.RawMessage `json:"row"`
	Timestamp time.Time       `json:"timestamp"`
}

// SpeechRequest is the payload dispatched to the downstream voice session.
type SpeechRequest struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Marker    bool      `json:"marker,omitempty"`
	Style     string    `json:"style,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptTurn mirrors a transcript log entry for UI consumers on the bus.
type TranscriptTurn struct {
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	SourceText string    `json:"source_text,omitempty"`
	Final      bool      `json:"final"`
	Timestamp  time.Time `json:"timestamp"`
}

// StyleUpdate switches the active speaking style for segments that have not
// yet been dispatched.
type StyleUpdate struct {
	Style     string    `json:"style"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectRecordChanged  = "source.record.changed"
	SubjectSpeechDispatch = "voice.speech.dispatch"
	SubjectTranscriptTurn = "transcript.turn"
	SubjectStyleUpdate    = "settings.style"
)
