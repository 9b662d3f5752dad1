package voice

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/panyeroa1/orbit-translator/internal/bus"
	"github.com/panyeroa1/orbit-translator/internal/protocol"
)

// NATSSession dispatches speech requests over the bus. Connectivity is
// read live from the underlying connection so a broker outage closes the
// gate immediately.
type NATSSession struct {
	bus    *bus.Client
	logger *slog.Logger
}

func NewNATSSession(busClient *bus.Client, logger *slog.Logger) *NATSSession {
	return &NATSSession{
		bus:    busClient,
		logger: logger.With(slog.String("component", "voice-session")),
	}
}

func (s *NATSSession) Status() Status {
	if s.bus.Healthy() {
		return StatusConnected
	}
	return StatusDisconnected
}

func (s *NATSSession) Send(req protocol.SpeechRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal speech request: %w", err)
	}
	return s.bus.Conn().Publish(protocol.SubjectSpeechDispatch, data)
}
