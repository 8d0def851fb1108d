package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/textkernel/neo4j-connector-go/protocol"
	"github.com/textkernel/neo4j-connector-go/transport"
	"github.com/textkernel/neo4j-connector-go/transport/mock"
)

func newTestConnector(t *testing.T, tr transport.Transport, configure func(*Options)) *Connector {
	t.Helper()

	opts := DefaultOptions()
	opts.Logger = NewNoopLogger()
	opts.TransportFactory = func(ctx context.Context) (transport.Transport, error) {
		return tr, nil
	}
	if configure != nil {
		configure(&opts)
	}

	c, err := New(DefaultHost, DefaultCredentials, &opts)
	if err != nil {
		t.Fatalf("failed to create connector: %v", err)
	}
	return c
}

// echoResponder answers every statement with one row: column
// "key-<cypher>" holding "value-<cypher>", mirroring statement order.
func echoResponder(call int, body []byte) (int, []byte, error) {
	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return 0, nil, err
	}

	resp := protocol.Response{Results: []protocol.Result{}, Errors: []protocol.ServerError{}}
	for _, stmt := range req.Statements {
		resp.Results = append(resp.Results, protocol.Result{
			Columns: []string{"key-" + stmt.Statement},
			Data:    []protocol.Datum{{Row: []interface{}{"value-" + stmt.Statement}}},
		})
	}

	payload, err := json.Marshal(resp)
	return http.StatusOK, payload, err
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func decodeRequest(t *testing.T, body []byte) protocol.Request {
	t.Helper()
	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("captured body is not a valid request: %v", err)
	}
	return req
}

func statements(cyphers ...string) []Statement {
	stmts := make([]Statement, len(cyphers))
	for i, cypher := range cyphers {
		stmts[i] = NewStatement(cypher)
	}
	return stmts
}

func TestNewValidatesHost(t *testing.T) {
	cases := []string{
		"bolt://localhost:7687",
		"localhost:7474",
		"http://",
		"://broken",
	}

	for _, host := range cases {
		_, err := New(host, DefaultCredentials, nil)
		if err == nil {
			t.Errorf("expected error for host %q", host)
			continue
		}

		var argErr *ArgumentError
		if !errors.As(err, &argErr) {
			t.Errorf("expected *ArgumentError for host %q, got %T", host, err)
			continue
		}
		if argErr.Code != CodeInvalidArgument {
			t.Errorf("expected code %s, got %s", CodeInvalidArgument, argErr.Code)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New("", DefaultCredentials, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	want := DefaultHost + DefaultCommitPath
	if c.Endpoint() != want {
		t.Errorf("expected endpoint %s, got %s", want, c.Endpoint())
	}
}

func TestNewTrailingSlashHost(t *testing.T) {
	c, err := New("http://domain:7474/", DefaultCredentials, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	want := "http://domain:7474" + DefaultCommitPath
	if c.Endpoint() != want {
		t.Errorf("expected endpoint %s, got %s", want, c.Endpoint())
	}
}

func TestRunMultipleNegativeBatchSize(t *testing.T) {
	tr := mock.NewMockTransport()
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("RETURN 1"), -1)

	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgumentError, got %v", err)
	}
	if argErr.Code != CodeInvalidArgument {
		t.Errorf("expected code %s, got %s", CodeInvalidArgument, argErr.Code)
	}
	if tr.GetPostCallCount() != 0 {
		t.Errorf("expected no HTTP calls, got %d", tr.GetPostCallCount())
	}
}

func TestRunMultipleEmptyInput(t *testing.T) {
	tr := mock.NewMockTransport()
	c := newTestConnector(t, tr, nil)

	rows, err := c.RunMultiple(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil row sequence, got %v", rows)
	}
	if tr.GetPostCallCount() != 0 {
		t.Errorf("expected no HTTP calls, got %d", tr.GetPostCallCount())
	}
}

func TestRunMultipleChunking(t *testing.T) {
	tr := mock.NewMockTransport().WithResponder(echoResponder)
	c := newTestConnector(t, tr, nil)

	stmts := statements("s0", "s1", "s2", "s3", "s4")
	rows, err := c.RunMultiple(context.Background(), stmts, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tr.GetPostCallCount() != 3 {
		t.Fatalf("expected 3 HTTP calls for 5 statements at batch size 2, got %d", tr.GetPostCallCount())
	}

	history := tr.GetPostHistory()
	wantSizes := []int{2, 2, 1}
	for i, body := range history {
		req := decodeRequest(t, body)
		if len(req.Statements) != wantSizes[i] {
			t.Errorf("chunk %d: expected %d statements, got %d", i, wantSizes[i], len(req.Statements))
		}
	}

	// First statement of the last chunk must be s4.
	last := decodeRequest(t, history[2])
	if last.Statements[0].Statement != "s4" {
		t.Errorf("expected last chunk to carry s4, got %s", last.Statements[0].Statement)
	}

	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[4]["key-s4"] != "value-s4" {
		t.Errorf("unexpected final row: %v", rows[4])
	}
}

func TestBatchingDoesNotChangeResults(t *testing.T) {
	stmts := statements("a", "b", "c", "d", "e", "f", "g")

	run := func(batchSize int) []Row {
		tr := mock.NewMockTransport().WithResponder(echoResponder)
		c := newTestConnector(t, tr, nil)
		rows, err := c.RunMultiple(context.Background(), stmts, batchSize)
		if err != nil {
			t.Fatalf("batch size %d: unexpected error: %v", batchSize, err)
		}
		return rows
	}

	unbatched := run(len(stmts))
	for _, batchSize := range []int{1, 2, 3, 5, 100} {
		if diff := cmp.Diff(unbatched, run(batchSize)); diff != "" {
			t.Errorf("batch size %d changed observable results (-unbatched +batched):\n%s", batchSize, diff)
		}
	}
}

func TestRunMultipleBatchSizeLargerThanInput(t *testing.T) {
	tr := mock.NewMockTransport().WithResponder(echoResponder)
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("a", "b"), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.GetPostCallCount() != 1 {
		t.Errorf("expected a single HTTP call, got %d", tr.GetPostCallCount())
	}
}

func TestRunMultipleDefaultBatchSizeFromOptions(t *testing.T) {
	tr := mock.NewMockTransport().WithResponder(echoResponder)
	c := newTestConnector(t, tr, func(opts *Options) {
		opts.DefaultBatchSize = 2
	})

	_, err := c.RunMultiple(context.Background(), statements("a", "b", "c"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.GetPostCallCount() != 2 {
		t.Errorf("expected 2 HTTP calls with default batch size 2, got %d", tr.GetPostCallCount())
	}
}

func TestStatementIndexPreservedAcrossChunks(t *testing.T) {
	serverError := protocol.ServerError{
		Code:    "Neo.ClientError.Statement.SyntaxError",
		Message: "Invalid input 'X'",
	}

	tr := mock.NewMockTransport().WithResponder(func(call int, body []byte) (int, []byte, error) {
		if call < 2 {
			return echoResponder(call, body)
		}
		// Third chunk: one statement completes, the next one fails.
		resp := protocol.Response{
			Results: []protocol.Result{
				{Columns: []string{"ok"}, Data: []protocol.Datum{{Row: []interface{}{true}}}},
			},
			Errors: []protocol.ServerError{serverError},
		}
		payload, _ := json.Marshal(resp)
		return http.StatusOK, payload, nil
	})
	c := newTestConnector(t, tr, nil)

	stmts := statements("s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8")
	_, err := c.RunMultiple(context.Background(), stmts, 3)

	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("expected *StatementError, got %v", err)
	}

	// Chunk offset 6 plus one completed result: statement 7 of the whole
	// input, not index 1 of the chunk.
	if stmtErr.StatementIndex != 7 {
		t.Errorf("expected statement index 7, got %d", stmtErr.StatementIndex)
	}
	if len(stmtErr.Errors) != 1 || stmtErr.Errors[0].Code != serverError.Code {
		t.Errorf("expected server error to be preserved, got %v", stmtErr.Errors)
	}
}

func TestStatementErrorAbortsRemainingChunks(t *testing.T) {
	failing := mustMarshal(t, protocol.Response{
		Results: []protocol.Result{},
		Errors:  []protocol.ServerError{{Code: "Neo.ClientError.Statement.SyntaxError", Message: "boom"}},
	})

	tr := mock.NewMockTransport()
	tr.EnqueueResponse(http.StatusOK, mustMarshal(t, protocol.Response{Results: []protocol.Result{}}))
	tr.EnqueueResponse(http.StatusOK, failing)
	tr.EnqueueResponse(http.StatusOK, mustMarshal(t, protocol.Response{Results: []protocol.Result{}}))
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("a", "b", "c", "d", "e", "f"), 2)

	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("expected *StatementError, got %v", err)
	}
	if stmtErr.StatementIndex != 2 {
		t.Errorf("expected statement index 2, got %d", stmtErr.StatementIndex)
	}
	if tr.GetPostCallCount() != 2 {
		t.Errorf("expected third chunk to be skipped, got %d calls", tr.GetPostCallCount())
	}
}

func TestTransportErrorAbortsWithoutRetry(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tr := mock.NewMockTransport()
	tr.EnqueueResponse(http.StatusOK, mustMarshal(t, protocol.Response{Results: []protocol.Result{}}))
	tr.EnqueueError(cause)
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("a", "b", "c", "d"), 2)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Code != CodeRequestFailed {
		t.Errorf("expected code %s, got %s", CodeRequestFailed, reqErr.Code)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the transport cause to be wrapped")
	}
	if tr.GetPostCallCount() != 2 {
		t.Errorf("expected exactly 2 calls (no retry), got %d", tr.GetPostCallCount())
	}
}

func TestNon2xxStatusFailsRequest(t *testing.T) {
	tr := mock.NewMockTransport().WithDefaultResponse(http.StatusServiceUnavailable, []byte("upstream down"))
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("a"), 1)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", reqErr.StatusCode)
	}
}

func TestMalformedResponseFailsRequest(t *testing.T) {
	tr := mock.NewMockTransport().WithDefaultResponse(http.StatusOK, []byte("<html></html>"))
	c := newTestConnector(t, tr, nil)

	_, err := c.RunMultiple(context.Background(), statements("a"), 1)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError for malformed payload, got %v", err)
	}

	var protoErr *protocol.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Error("expected the protocol error to be wrapped as the cause")
	}
}

func TestUnserializableParametersFailLocally(t *testing.T) {
	tr := mock.NewMockTransport()
	c := newTestConnector(t, tr, nil)

	stmts := []Statement{NewStatementWithParams("RETURN $x", map[string]interface{}{"x": make(chan int)})}
	_, err := c.RunMultiple(context.Background(), stmts, 1)

	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgumentError, got %v", err)
	}
	if tr.GetPostCallCount() != 0 {
		t.Errorf("expected no HTTP calls, got %d", tr.GetPostCallCount())
	}
}

func TestRunMatchesRunMultiple(t *testing.T) {
	trRun := mock.NewMockTransport().WithResponder(echoResponder)
	cRun := newTestConnector(t, trRun, nil)

	trMulti := mock.NewMockTransport().WithResponder(echoResponder)
	cMulti := newTestConnector(t, trMulti, nil)

	rowsRun, err := cRun.Run(context.Background(), "cypher-1", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rowsMulti, err := cMulti.RunMultiple(context.Background(), statements("cypher-1"), 1)
	if err != nil {
		t.Fatalf("RunMultiple failed: %v", err)
	}

	if diff := cmp.Diff(rowsMulti, rowsRun); diff != "" {
		t.Errorf("Run and RunMultiple disagree (-multi +run):\n%s", diff)
	}
	if rowsRun[0]["key-cypher-1"] != "value-cypher-1" {
		t.Errorf("unexpected row: %v", rowsRun[0])
	}
}

func TestRunForwardsParameters(t *testing.T) {
	tr := mock.NewMockTransport().WithResponder(echoResponder)
	c := newTestConnector(t, tr, nil)

	_, err := c.Run(context.Background(), "MATCH (n:node {uuid: $uuid}) RETURN n", map[string]interface{}{"uuid": "123abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := decodeRequest(t, tr.GetPostHistory()[0])
	if req.Statements[0].Parameters["uuid"] != "123abc" {
		t.Errorf("expected parameters to be forwarded, got %v", req.Statements[0].Parameters)
	}
}

func TestPing(t *testing.T) {
	tr := mock.NewMockTransport().WithDefaultResponse(http.StatusOK, []byte(`{"results":[],"errors":[]}`))
	c := newTestConnector(t, tr, nil)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}

	req := decodeRequest(t, tr.GetPostHistory()[0])
	if len(req.Statements) != 0 {
		t.Errorf("ping should commit an empty statement list, got %v", req.Statements)
	}
}

func TestPingFailure(t *testing.T) {
	tr := mock.NewMockTransport().WithDefaultResponse(http.StatusServiceUnavailable, []byte("down"))
	c := newTestConnector(t, tr, nil)

	err := c.Ping(context.Background())

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
}
