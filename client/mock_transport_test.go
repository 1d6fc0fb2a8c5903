package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/localrivet/callflow/logx"
	"github.com/stretchr/testify/require"
)

// mockSocket implements SocketTransport for testing
type mockSocket struct {
	mu        sync.Mutex
	closed    bool
	closing   chan struct{}
	sendErr   error
	stalled   bool // Send blocks until ctx ends or Close
	sent      chan []byte
	onMessage func([]byte)
	onClose   func(error)
}

func newMockSocket() *mockSocket {
	return &mockSocket{sent: make(chan []byte, 64), closing: make(chan struct{})}
}

func (m *mockSocket) Kind() TransportKind {
	return TransportWebSocket
}

func (m *mockSocket) Send(ctx context.Context, data []byte) error {
	m.mu.Lock()
	closed, sendErr, stalled := m.closed, m.sendErr, m.stalled
	m.mu.Unlock()
	if closed {
		return NewTransportError("mock", "send failed", fmt.Errorf("transport is closed"))
	}
	if sendErr != nil {
		return sendErr
	}
	if stalled {
		select {
		case <-ctx.Done():
			return NewTransportError("mock", "send failed", ctx.Err())
		case <-m.closing:
			return NewTransportError("mock", "send failed", fmt.Errorf("transport is closed"))
		}
	}
	select {
	case m.sent <- data:
		return nil
	default:
		return fmt.Errorf("mock send buffer full")
	}
}

func (m *mockSocket) Listen(onMessage func([]byte), onClose func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = onMessage
	m.onClose = onClose
}

func (m *mockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closing)
	}
	return nil
}

func (m *mockSocket) stall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stalled = true
}

func (m *mockSocket) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// deliver simulates an inbound message.
func (m *mockSocket) deliver(data string) {
	m.mu.Lock()
	f := m.onMessage
	m.mu.Unlock()
	f([]byte(data))
}

// drop simulates the socket ending without Close.
func (m *mockSocket) drop(err error) {
	m.mu.Lock()
	f := m.onClose
	m.mu.Unlock()
	f(err)
}

type sentRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// nextRequest waits for the next message written by the client.
func (m *mockSocket) nextRequest(t *testing.T) sentRequest {
	t.Helper()
	select {
	case data := <-m.sent:
		var req sentRequest
		require.NoError(t, json.Unmarshal(data, &req))
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no request sent")
		return sentRequest{}
	}
}

// mockFactory hands out sock and counts how often it was asked to.
type mockFactory struct {
	sock  *mockSocket
	calls atomic.Int32
}

func (f *mockFactory) open(ctx context.Context, cfg EndpointConfig, opts *TransportOptions) (Transport, error) {
	f.calls.Add(1)
	return f.sock, nil
}

func newMockClient(options ...Option) (*Client, *mockFactory) {
	f := &mockFactory{sock: newMockSocket()}
	base := []Option{
		WithLogger(logx.NewNilLogger()),
		WithTransportFactory(TransportWebSocket, f.open),
	}
	return New(append(base, options...)...), f
}

// connectMock returns a client connected to a mock socket.
func connectMock(t *testing.T, timeout time.Duration, options ...Option) (*Client, *mockSocket) {
	t.Helper()
	c, f := newMockClient(options...)
	err := c.Connect(context.Background(), EndpointConfig{
		URL:     "ws://endpoint.test/rpc",
		Timeout: timeout,
	})
	require.NoError(t, err)
	return c, f.sock
}
