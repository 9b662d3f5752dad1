package voice

import (
	"sync"

	"github.com/panyeroa1/orbit-translator/internal/protocol"
)

// MockSession records dispatched requests and reports a settable status.
type MockSession struct {
	mu      sync.Mutex
	status  Status
	sent    []protocol.SpeechRequest
	sendErr error
}

func NewMockSession() *MockSession {
	return &MockSession{status: StatusConnected}
}

func (m *MockSession) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *MockSession) SetStatus(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// FailWith makes every subsequent Send return err until cleared with nil.
func (m *MockSession) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *MockSession) Send(req protocol.SpeechRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, req)
	return nil
}

// Sent returns a snapshot of dispatched requests.
func (m *MockSession) Sent() []protocol.SpeechRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.SpeechRequest, len(m.sent))
	copy(out, m.sent)
	return out
}
