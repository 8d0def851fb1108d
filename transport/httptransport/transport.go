// Package httptransport implements the transport over net/http.
package httptransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/textkernel/neo4j-connector-go/transport"
)

// Options configures the HTTP transport.
type Options struct {
	// Endpoint is the fully qualified transactional-commit URL.
	Endpoint string

	// Username and Password are sent as HTTP Basic Auth on every request.
	Username string
	Password string

	// Timeout bounds each round trip including body read.
	// Zero means no client-side timeout.
	Timeout time.Duration

	// TLSConfig overrides the default TLS configuration when set.
	TLSConfig *tls.Config

	// UserAgent is sent as the User-Agent header when set.
	UserAgent string
}

// Transport is a transport.Transport over a shared net/http client.
// Connections are reused via keep-alive; the zero-value http.Transport
// settings (proxy from environment included) are inherited.
type Transport struct {
	opts   Options
	client *http.Client
	closed atomic.Bool

	totalRequests atomic.Int64
	totalErrors   atomic.Int64
	latencySum    atomic.Int64
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64

	mu            sync.Mutex
	lastError     error
	lastErrorTime time.Time
}

// New creates an HTTP transport for the given endpoint. No network
// activity occurs until the first Post.
func New(opts Options) *Transport {
	rt := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLSConfig != nil {
		rt.TLSClientConfig = opts.TLSConfig
	}

	return &Transport{
		opts: opts,
		client: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
		},
	}
}

// Factory returns a transport.Factory producing HTTP transports with the
// given options.
func Factory(opts Options) transport.Factory {
	return func(ctx context.Context) (transport.Transport, error) {
		return New(opts), nil
	}
}

// Post implements transport.Transport. A non-2xx status is not an error at
// this layer; the status code is returned for the caller to classify.
func (t *Transport) Post(ctx context.Context, body []byte) (int, []byte, error) {
	if t.closed.Load() {
		err := errors.New("transport is closed")
		t.recordError(err)
		return 0, nil, err
	}

	t.totalRequests.Add(1)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		t.recordError(err)
		return 0, nil, errors.Wrap(err, "building commit request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.opts.UserAgent != "" {
		req.Header.Set("User-Agent", t.opts.UserAgent)
	}
	req.SetBasicAuth(t.opts.Username, t.opts.Password)

	resp, err := t.client.Do(req)
	if err != nil {
		t.recordError(err)
		return 0, nil, errors.Wrap(err, "posting to commit endpoint")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.recordError(err)
		return resp.StatusCode, nil, errors.Wrap(err, "reading commit response")
	}

	t.bytesSent.Add(int64(len(body)))
	t.bytesReceived.Add(int64(len(payload)))
	t.latencySum.Add(int64(time.Since(start)))

	return resp.StatusCode, payload, nil
}

// Close implements transport.Transport. Subsequent Posts fail.
func (t *Transport) Close() error {
	t.closed.Store(true)
	t.client.CloseIdleConnections()
	return nil
}

// IsHealthy implements transport.Transport
func (t *Transport) IsHealthy() bool {
	return !t.closed.Load()
}

// GetMetrics implements transport.Transport
func (t *Transport) GetMetrics() transport.TransportMetrics {
	totalReqs := t.totalRequests.Load()
	avgLatency := time.Duration(0)
	if totalReqs > 0 {
		avgLatency = time.Duration(t.latencySum.Load() / totalReqs)
	}

	t.mu.Lock()
	lastError := t.lastError
	lastErrorTime := t.lastErrorTime
	t.mu.Unlock()

	return transport.TransportMetrics{
		TotalRequests:  totalReqs,
		TotalErrors:    t.totalErrors.Load(),
		AverageLatency: avgLatency,
		LastError:      lastError,
		LastErrorTime:  lastErrorTime,
		BytesSent:      t.bytesSent.Load(),
		BytesReceived:  t.bytesReceived.Load(),
	}
}

func (t *Transport) recordError(err error) {
	t.totalErrors.Add(1)
	t.mu.Lock()
	t.lastError = err
	t.lastErrorTime = time.Now()
	t.mu.Unlock()
}
