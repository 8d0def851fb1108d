// Package transport defines the transport layer abstraction for the Neo4j
// HTTP API
package transport

import (
	"context"
	"time"
)

// Transport performs a single transactional-commit round trip.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Post sends a request body to the transactional-commit endpoint and
	// returns the HTTP status code with the raw response payload
	Post(ctx context.Context, body []byte) (int, []byte, error)

	// Close releases any resources held by the transport
	Close() error

	// IsHealthy returns whether the transport is usable
	IsHealthy() bool

	// GetMetrics returns transport performance metrics
	GetMetrics() TransportMetrics
}

// TransportMetrics contains performance and health metrics
type TransportMetrics struct {
	// TotalRequests is the total number of requests sent
	TotalRequests int64

	// TotalErrors is the total number of errors encountered
	TotalErrors int64

	// AverageLatency is the average round-trip latency
	AverageLatency time.Duration

	// LastError is the most recent error encountered
	LastError error

	// LastErrorTime is when the last error occurred
	LastErrorTime time.Time

	// BytesSent is the total bytes sent
	BytesSent int64

	// BytesReceived is the total bytes received
	BytesReceived int64
}

// Factory creates new transport instances
type Factory func(ctx context.Context) (Transport, error)
