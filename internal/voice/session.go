// Package voice defines the downstream voice session contract.
package voice

import "github.com/panyeroa1/orbit-translator/internal/protocol"

// Status reports connectivity of the downstream voice session.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Session is the write-only dispatch surface of the voice synthesis
// session. Send is fire-and-forget from the caller's point of view; the
// drain loop does not retry individual dispatches.
type Session interface {
	Status() Status
	Send(req protocol.SpeechRequest) error
}
