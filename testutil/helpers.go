package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/textkernel/neo4j-connector-go/connector"
)

// WithTimeout creates a context with timeout for tests.
// Default timeout is 10 seconds.
func WithTimeout(t *testing.T, timeout ...time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	duration := 10 * time.Second
	if len(timeout) > 0 {
		duration = timeout[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.Cleanup(cancel)

	return ctx, cancel
}

// ErrorCode extracts the connector error code from err, or "" when err is
// not a connector error.
func ErrorCode(err error) string {
	var argErr *connector.ArgumentError
	if errors.As(err, &argErr) {
		return argErr.Code
	}

	var reqErr *connector.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Code
	}

	var stmtErr *connector.StatementError
	if errors.As(err, &stmtErr) {
		return stmtErr.Code
	}

	return ""
}

// RequireErrorCode fails the test unless err carries the expected
// connector error code.
func RequireErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := ErrorCode(err); got != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, got, err)
	}
}

// RequireNoError fails the test if err is not nil.
// This is similar to testify's require.NoError.
func RequireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// RequireError fails the test if err is nil.
func RequireError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}
