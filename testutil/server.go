// Package testutil provides assertion helpers and an in-process fake of
// the transactional-commit endpoint for exercising the connector over real
// HTTP.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/textkernel/neo4j-connector-go/protocol"
)

// Handler produces the response for one captured commit request.
type Handler func(req *protocol.Request) (int, *protocol.Response)

// CommitServer is an in-process fake transactional-commit endpoint. It
// records every request body and decoded request, optionally enforces
// HTTP Basic Auth, and delegates response generation to a Handler.
type CommitServer struct {
	srv     *httptest.Server
	handler Handler

	requireAuth bool
	username    string
	password    string

	mu       sync.Mutex
	bodies   [][]byte
	requests []protocol.Request
}

// NewCommitServer starts a fake endpoint that answers every POST with the
// handler's response. The server is closed via t.Cleanup.
func NewCommitServer(t *testing.T, handler Handler) *CommitServer {
	t.Helper()

	if handler == nil {
		handler = EchoHandler
	}

	s := &CommitServer{handler: handler}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)

	return s
}

// RequireBasicAuth makes the server reject requests without the given
// credentials, answering 401 with a Neo4j-style error payload.
func (s *CommitServer) RequireBasicAuth(username, password string) *CommitServer {
	s.requireAuth = true
	s.username = username
	s.password = password
	return s
}

// URL returns the server's base URL, suitable as the connector host.
func (s *CommitServer) URL() string {
	return s.srv.URL
}

// RequestCount returns the number of requests served.
func (s *CommitServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Bodies returns the raw request bodies in arrival order.
func (s *CommitServer) Bodies() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	bodies := make([][]byte, len(s.bodies))
	copy(bodies, s.bodies)
	return bodies
}

// Requests returns the decoded requests in arrival order.
func (s *CommitServer) Requests() []protocol.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]protocol.Request, len(s.requests))
	copy(requests, s.requests)
	return requests
}

func (s *CommitServer) serve(w http.ResponseWriter, r *http.Request) {
	if s.requireAuth {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.username || pass != s.password {
			writeJSON(w, http.StatusUnauthorized, &protocol.Response{
				Results: []protocol.Result{},
				Errors: []protocol.ServerError{{
					Code:    "Neo.ClientError.Security.Unauthorized",
					Message: "Invalid username or password.",
				}},
			})
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, &protocol.Response{
			Results: []protocol.Result{},
			Errors: []protocol.ServerError{{
				Code:    "Neo.ClientError.Request.InvalidFormat",
				Message: err.Error(),
			}},
		})
		return
	}

	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	status, resp := s.handler(&req)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, resp *protocol.Response) {
	if resp.Results == nil {
		resp.Results = []protocol.Result{}
	}
	if resp.Errors == nil {
		resp.Errors = []protocol.ServerError{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// EchoHandler answers every statement with a single row whose column is
// derived from the statement text: column "key-<cypher>" holding
// "value-<cypher>". Mirrors the statement order so ordering assertions
// stay readable.
func EchoHandler(req *protocol.Request) (int, *protocol.Response) {
	results := make([]protocol.Result, 0, len(req.Statements))
	for _, stmt := range req.Statements {
		results = append(results, protocol.Result{
			Columns: []string{fmt.Sprintf("key-%s", stmt.Statement)},
			Data: []protocol.Datum{
				{Row: []interface{}{fmt.Sprintf("value-%s", stmt.Statement)}},
			},
		})
	}
	return http.StatusOK, &protocol.Response{Results: results}
}

// StaticHandler always answers with the given response and status.
func StaticHandler(status int, resp *protocol.Response) Handler {
	return func(req *protocol.Request) (int, *protocol.Response) {
		return status, resp
	}
}

// FailingHandler answers 200 with the given server error after completing
// the first `completed` statements, the way Neo4j reports a mid-transaction
// failure.
func FailingHandler(completed int, code, message string) Handler {
	return func(req *protocol.Request) (int, *protocol.Response) {
		results := make([]protocol.Result, 0, completed)
		for i := 0; i < completed && i < len(req.Statements); i++ {
			results = append(results, protocol.Result{
				Columns: []string{"ok"},
				Data:    []protocol.Datum{{Row: []interface{}{true}}},
			})
		}
		return http.StatusOK, &protocol.Response{
			Results: results,
			Errors:  []protocol.ServerError{{Code: code, Message: message}},
		}
	}
}
