// Package connector implements a minimal client for Neo4j's HTTP
// transactional endpoint. Every call commits a single transaction per
// request; large statement lists can be split into fixed-size batches
// issued strictly in order.
package connector

import (
	"context"
	"crypto/tls"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/textkernel/neo4j-connector-go/mapper"
	"github.com/textkernel/neo4j-connector-go/protocol"
	"github.com/textkernel/neo4j-connector-go/transport"
	"github.com/textkernel/neo4j-connector-go/transport/httptransport"
)

const (
	// DefaultHost is a stock local Neo4j installation.
	DefaultHost = "http://localhost:7474"

	// DefaultCommitPath is the begin-and-commit-in-one-request path.
	DefaultCommitPath = "/db/data/transaction/commit"
)

// DefaultCredentials matches a stock Neo4j installation.
var DefaultCredentials = Credentials{Username: "neo4j", Password: "neo4j"}

// Row is one result row keyed by column name.
type Row = mapper.Row

// Connector issues single-request transactions against the
// transactional-commit endpoint. It keeps no state between calls beyond
// its fixed configuration, so concurrent Run/RunMultiple calls on one
// instance are safe as long as the transport is.
//
// Batching is purely a chunking optimization: results are identical in
// content and order to a single unbatched request. Chunks are submitted
// strictly one after another, never concurrently, so side-effecting
// statements observe the same ordering as an unbatched request. On a
// mid-sequence failure, statements in already-committed chunks have taken
// effect server-side; there is no local rollback and no partial result.
type Connector struct {
	endpoint  string
	creds     Credentials
	opts      Options
	tr        transport.Transport
	logger    Logger
	debugMode atomic.Bool

	hooksMu sync.RWMutex
	hooks   []hookEntry
}

// New creates a Connector for the given host. An empty host selects
// DefaultHost. No network activity occurs until the first call.
func New(host string, creds Credentials, opts *Options) (*Connector, error) {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}

	if host == "" {
		host = DefaultHost
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, ErrInvalidHost(host, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidHost(host, nil)
	}

	commitPath := opts.CommitPath
	if commitPath == "" {
		commitPath = DefaultCommitPath
	}
	endpoint := strings.TrimRight(host, "/") + commitPath

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(opts.LogLevel, nil)
	}

	c := &Connector{
		endpoint: endpoint,
		creds:    creds,
		opts:     *opts,
		logger:   logger,
	}
	c.debugMode.Store(opts.DebugMode)

	factory := opts.TransportFactory
	if factory == nil {
		factory = httptransport.Factory(httptransport.Options{
			Endpoint:  endpoint,
			Username:  creds.Username,
			Password:  creds.Password,
			Timeout:   opts.Timeout,
			TLSConfig: tlsConfig(opts),
			UserAgent: userAgent(opts),
		})
	}

	tr, err := factory(context.Background())
	if err != nil {
		return nil, err
	}
	c.tr = tr

	c.logger.Debug("connector created",
		String("endpoint", endpoint),
		Int("defaultBatchSize", opts.DefaultBatchSize))

	return c, nil
}

// Endpoint returns the fully qualified transactional-commit URL.
func (c *Connector) Endpoint() string {
	return c.endpoint
}

// Transport returns the transport handle, e.g. to read its metrics.
func (c *Connector) Transport() transport.Transport {
	return c.tr
}

// Close releases the underlying transport.
func (c *Connector) Close() error {
	return c.tr.Close()
}

// Run executes a single statement in its own transaction and returns its
// rows in server order.
func (c *Connector) Run(ctx context.Context, cypher string, params map[string]interface{}) ([]Row, error) {
	return c.RunMultiple(ctx, []Statement{NewStatementWithParams(cypher, params)}, 1)
}

// RunMultiple executes the statements across one or more single-request
// transactions and returns the concatenation of every statement's rows in
// submission order.
//
// batchSize 0 falls back to Options.DefaultBatchSize; if that is also 0
// all statements go in one request. A negative batchSize fails with
// E_INVALID_ARGUMENT before any network call. An empty statement list is a
// no-op returning an empty sequence without any HTTP call.
func (c *Connector) RunMultiple(ctx context.Context, statements []Statement, batchSize int) ([]Row, error) {
	if batchSize == 0 {
		batchSize = c.opts.DefaultBatchSize
	}
	if batchSize < 0 {
		return nil, ErrBatchSize(batchSize)
	}
	if len(statements) == 0 {
		return []Row{}, nil
	}
	if batchSize == 0 || batchSize > len(statements) {
		batchSize = len(statements)
	}

	rows := make([]Row, 0)
	offset := 0
	for chunkIndex, chunk := range makeBatches(statements, batchSize) {
		resp, err := c.post(ctx, chunkIndex, offset, chunk)
		if err != nil {
			return nil, err
		}
		rows = append(rows, mapper.FlattenResults(resp.Results)...)
		offset += len(chunk)
	}

	return rows, nil
}

// post performs one transactional-commit round trip for a chunk.
func (c *Connector) post(ctx context.Context, chunkIndex, offset int, chunk []Statement) (*protocol.Response, error) {
	body, err := protocol.EncodeRequest(&protocol.Request{Statements: wireStatements(chunk)})
	if err != nil {
		return nil, ErrMalformedStatements(err)
	}

	start := time.Now()
	traceID := uuid.New().String()
	debug := c.IsDebugMode()

	fingerprints := make([]uint64, len(chunk))
	for i, statement := range chunk {
		fingerprints[i] = statement.Fingerprint()
	}

	hookCtx := &HookContext{
		TraceID:         traceID,
		ChunkIndex:      chunkIndex,
		StatementOffset: offset,
		StatementCount:  len(chunk),
		Fingerprints:    fingerprints,
		StartTime:       start,
		Metadata:        make(map[string]interface{}),
	}

	if err := c.executeBeforeHooks(ctx, hookCtx); err != nil {
		return nil, err
	}

	if debug {
		c.logger.Debug("sending request body",
			String("trace_id", traceID),
			Int("chunk", chunkIndex),
			String("body", string(body)))
	}

	status, payload, err := c.tr.Post(ctx, body)
	hookCtx.Duration = time.Since(start)

	if err != nil {
		reqErr := ErrRequestFailed(status, err, traceDetails(traceID, chunkIndex, offset))
		return nil, c.finish(ctx, hookCtx, reqErr)
	}

	if status < 200 || status >= 300 {
		reqErr := ErrRequestFailed(status, nil, traceDetails(traceID, chunkIndex, offset))
		return nil, c.finish(ctx, hookCtx, reqErr)
	}

	if debug {
		c.logger.Debug("received response body",
			String("trace_id", traceID),
			Int("status", status),
			String("body", string(payload)),
			Duration("elapsed", hookCtx.Duration))
	}

	resp, err := protocol.DecodeResponse(payload)
	if err != nil {
		reqErr := ErrRequestFailed(status, err, traceDetails(traceID, chunkIndex, offset))
		return nil, c.finish(ctx, hookCtx, reqErr)
	}

	if len(resp.Errors) > 0 {
		// Neo4j stops at the first failing statement; the completed
		// results pin down its position within the chunk.
		index := offset + len(resp.Results)
		if c.opts.VerboseErrors {
			for _, serverErr := range resp.Errors {
				c.logger.Error("statement failed",
					String("code", serverErr.Code),
					String("error_message", serverErr.Message),
					Int("statement_index", index),
					String("trace_id", traceID))
			}
		}
		stmtErr := NewStatementError(index, resp.Errors)
		return nil, c.finish(ctx, hookCtx, stmtErr)
	}

	hookCtx.Result = resp
	if hookErr := c.executeAfterHooks(ctx, hookCtx); hookErr != nil {
		return nil, hookErr
	}

	c.logger.Debug("chunk executed",
		String("trace_id", traceID),
		Int("chunk", chunkIndex),
		Int("statements", len(chunk)),
		Duration("duration", hookCtx.Duration))

	return resp, nil
}

// finish records a failed round trip with the after hooks and logger, then
// returns the error (or the hooks' replacement).
func (c *Connector) finish(ctx context.Context, hookCtx *HookContext, cause error) error {
	hookCtx.Error = cause
	if hookErr := c.executeAfterHooks(ctx, hookCtx); hookErr != nil {
		cause = hookErr
	}

	c.logger.Error("chunk failed",
		String("trace_id", hookCtx.TraceID),
		Int("chunk", hookCtx.ChunkIndex),
		Duration("duration", hookCtx.Duration),
		Error("error", cause))

	return cause
}

func traceDetails(traceID string, chunkIndex, offset int) map[string]interface{} {
	return map[string]interface{}{
		"traceId":         traceID,
		"chunkIndex":      chunkIndex,
		"statementOffset": offset,
	}
}

func tlsConfig(opts *Options) *tls.Config {
	if opts.TLSConfig != nil {
		return opts.TLSConfig
	}
	if opts.TLSInsecureSkipVerify {
		return &tls.Config{InsecureSkipVerify: true}
	}
	return nil
}

func userAgent(opts *Options) string {
	if opts.UserAgent != "" {
		return opts.UserAgent
	}
	return "neo4j-connector-go/" + Version
}
