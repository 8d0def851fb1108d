package connector

import (
	"crypto/tls"
	"time"

	"github.com/textkernel/neo4j-connector-go/transport"
)

// Credentials is the username/password pair forwarded as HTTP Basic Auth
// on every request.
type Credentials struct {
	Username string
	Password string
}

// Options configures the connector behavior.
type Options struct {
	// CommitPath overrides the transactional-commit path appended to the
	// host. Default: "/db/data/transaction/commit".
	CommitPath string

	// Timeout bounds each HTTP round trip. Cancellation beyond that is the
	// caller's context. Default: 10s.
	Timeout time.Duration

	// DefaultBatchSize is used by RunMultiple when the caller passes 0.
	// 0 sends all statements in a single request.
	// Default: 0
	DefaultBatchSize int

	// DebugMode enables verbose logging of request/response bodies and
	// full error serialization with cause chains.
	// Default: false
	DebugMode bool

	// VerboseErrors logs every server-reported error's code and message
	// through the logger before the error is returned.
	// Default: false
	VerboseErrors bool

	// Logger is the logger implementation to use.
	// If nil, a default logger is used.
	Logger Logger

	// LogLevel sets the minimum log level for the default logger
	// (DEBUG, INFO, WARN, ERROR). Default: "INFO"
	LogLevel string

	// TLSConfig provides custom TLS configuration for https hosts.
	TLSConfig *tls.Config

	// TLSInsecureSkipVerify skips certificate validation (for development only).
	// Ignored when TLSConfig is set. Default: false
	TLSInsecureSkipVerify bool

	// UserAgent overrides the User-Agent header.
	// Default: "neo4j-connector-go/<version>"
	UserAgent string

	// TransportFactory builds the transport the connector owns. If nil the
	// HTTP transport is used. Tests inject mocks here.
	TransportFactory transport.Factory
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		CommitPath:       DefaultCommitPath,
		Timeout:          10 * time.Second,
		DefaultBatchSize: 0,
		DebugMode:        false,
		VerboseErrors:    false,
		LogLevel:         "INFO",
	}
}
