// Package mock provides a scripted transport.Transport for testing
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/textkernel/neo4j-connector-go/transport"
)

// Response is one scripted round-trip outcome
type Response struct {
	Status  int
	Payload []byte
	Err     error
}

// Responder generates a response from the request body. call is the
// zero-based Post call number.
type Responder func(call int, body []byte) (int, []byte, error)

// MockTransport implements transport.Transport for testing. Responses are
// consumed from the scripted queue in order; when the queue is empty the
// default response (if set) is repeated; otherwise Post fails. A Responder
// takes precedence over both.
type MockTransport struct {
	// Behavior configuration
	mu          sync.Mutex
	queue       []Response
	defaultResp *Response
	responder   Responder
	healthy     bool
	closed      bool
	postDelay   time.Duration

	// Call tracking
	postCalls  atomic.Int32
	closeCalls atomic.Int32
	history    [][]byte

	// Metrics
	metrics mockMetrics
}

type mockMetrics struct {
	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		healthy: true,
		history: make([][]byte, 0),
	}
}

// EnqueueResponse appends a scripted success response
func (m *MockTransport) EnqueueResponse(status int, payload []byte) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, Response{Status: status, Payload: payload})
	return m
}

// EnqueueError appends a scripted transport failure
func (m *MockTransport) EnqueueError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, Response{Err: err})
	return m
}

// WithDefaultResponse configures the response used when the queue is empty
func (m *MockTransport) WithDefaultResponse(status int, payload []byte) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = &Response{Status: status, Payload: payload}
	return m
}

// WithResponder configures a function that generates every response
func (m *MockTransport) WithResponder(responder Responder) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = responder
	return m
}

// WithHealthy configures the health status
func (m *MockTransport) WithHealthy(healthy bool) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
	return m
}

// WithPostDelay adds a delay to Post operations
func (m *MockTransport) WithPostDelay(delay time.Duration) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postDelay = delay
	return m
}

// Post implements transport.Transport
func (m *MockTransport) Post(ctx context.Context, body []byte) (int, []byte, error) {
	call := int(m.postCalls.Add(1)) - 1
	m.metrics.totalRequests.Add(1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.metrics.totalErrors.Add(1)
		return 0, nil, fmt.Errorf("transport is closed")
	}

	m.history = append(m.history, body)

	delay := m.postDelay
	responder := m.responder

	var resp Response
	if responder == nil {
		switch {
		case len(m.queue) > 0:
			resp = m.queue[0]
			m.queue = m.queue[1:]
		case m.defaultResp != nil:
			resp = *m.defaultResp
		default:
			resp = Response{Err: fmt.Errorf("no scripted response for call %d", call)}
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			m.metrics.totalErrors.Add(1)
			return 0, nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if responder != nil {
		status, payload, err := responder(call, body)
		if err != nil {
			m.metrics.totalErrors.Add(1)
			return status, payload, err
		}
		m.metrics.bytesSent.Add(int64(len(body)))
		m.metrics.bytesReceived.Add(int64(len(payload)))
		return status, payload, nil
	}

	if resp.Err != nil {
		m.metrics.totalErrors.Add(1)
		return 0, nil, resp.Err
	}

	m.metrics.bytesSent.Add(int64(len(body)))
	m.metrics.bytesReceived.Add(int64(len(resp.Payload)))
	return resp.Status, resp.Payload, nil
}

// Close implements transport.Transport
func (m *MockTransport) Close() error {
	m.closeCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsHealthy implements transport.Transport
func (m *MockTransport) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy && !m.closed
}

// GetMetrics implements transport.Transport
func (m *MockTransport) GetMetrics() transport.TransportMetrics {
	return transport.TransportMetrics{
		TotalRequests: m.metrics.totalRequests.Load(),
		TotalErrors:   m.metrics.totalErrors.Load(),
		BytesSent:     m.metrics.bytesSent.Load(),
		BytesReceived: m.metrics.bytesReceived.Load(),
	}
}

// GetPostCallCount returns the number of times Post was called
func (m *MockTransport) GetPostCallCount() int {
	return int(m.postCalls.Load())
}

// GetCloseCallCount returns the number of times Close was called
func (m *MockTransport) GetCloseCallCount() int {
	return int(m.closeCalls.Load())
}

// GetPostHistory returns every request body posted through this transport
func (m *MockTransport) GetPostHistory() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Return a copy to prevent external modifications
	history := make([][]byte, len(m.history))
	copy(history, m.history)
	return history
}

// IsClosed returns whether the transport has been closed
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset clears all scripted behavior, state and call counts
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = nil
	m.defaultResp = nil
	m.responder = nil
	m.healthy = true
	m.closed = false
	m.postDelay = 0
	m.history = make([][]byte, 0)

	m.postCalls.Store(0)
	m.closeCalls.Store(0)

	m.metrics.totalRequests.Store(0)
	m.metrics.totalErrors.Store(0)
	m.metrics.bytesSent.Store(0)
	m.metrics.bytesReceived.Store(0)
}
