package socket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockConn is a test double for Client that captures sent frames.
type mockConn struct {
	id       string
	messages [][]byte
	closed   bool
	failSend bool
	mu       sync.Mutex
}

func newMockConn(id string) *mockConn {
	return &mockConn{id: id}
}

func (m *mockConn) ID() string {
	return m.id
}

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.failSend {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Frames decodes everything received so far.
func (m *mockConn) Frames(t *testing.T) []decodedFrame {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	frames := make([]decodedFrame, 0, len(m.messages))
	for _, raw := range m.messages {
		var f decodedFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		frames = append(frames, f)
	}
	return frames
}

// FramesOf filters Frames by event type.
func (m *mockConn) FramesOf(t *testing.T, event EventType) []decodedFrame {
	t.Helper()
	var out []decodedFrame
	for _, f := range m.Frames(t) {
		if f.Type == event {
			out = append(out, f)
		}
	}
	return out
}

type decodedFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (f decodedFrame) Strings(t *testing.T) []string {
	t.Helper()
	var out []string
	require.NoError(t, json.Unmarshal(f.Payload, &out))
	return out
}

func (f decodedFrame) Map(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(f.Payload, &out))
	return out
}

const (
	userA = "11111111-1111-1111-1111-111111111111"
	userB = "22222222-2222-2222-2222-222222222222"
	userC = "33333333-3333-3333-3333-333333333333"
)
