package connector

import (
	"encoding/json"
	"fmt"

	"github.com/textkernel/neo4j-connector-go/protocol"
)

// Error codes raised by the connector.
const (
	CodeInvalidArgument = "E_INVALID_ARGUMENT"
	CodeRequestFailed   = "E_REQUEST_FAILED"
	CodeStatementFailed = "E_STATEMENT_FAILED"
)

// ArgumentError represents invalid input detected locally, before any
// network call.
type ArgumentError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface. Returns JSON format; use
// FormatError for flexible formatting based on debug mode.
func (e *ArgumentError) Error() string {
	return marshalError(e.Code, e.Type, e.Message, e.Details, e.Cause, nil)
}

// FormatError formats the error based on debug mode.
func (e *ArgumentError) FormatError(debugMode bool) string {
	if !debugMode {
		return compactError(e.Code, e.Message, e.Cause)
	}
	return indentError(e.Code, e.Type, e.Message, e.Details, e.Cause, nil)
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// RequestError represents a transport-level failure or a non-2xx HTTP
// status. Statements in chunks already submitted before the failure have
// taken effect server-side; there is no local rollback.
type RequestError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	details := e.Details
	if e.StatusCode != 0 {
		details = cloneDetails(details)
		details["statusCode"] = e.StatusCode
	}
	return marshalError(e.Code, e.Type, e.Message, details, e.Cause, nil)
}

// FormatError formats the error based on debug mode.
func (e *RequestError) FormatError(debugMode bool) string {
	if !debugMode {
		return compactError(e.Code, e.Message, e.Cause)
	}
	details := cloneDetails(e.Details)
	if e.StatusCode != 0 {
		details["statusCode"] = e.StatusCode
	}
	return indentError(e.Code, e.Type, e.Message, details, e.Cause, nil)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// StatementError represents one or more database-reported errors in an
// otherwise successful HTTP response. StatementIndex is relative to the
// whole input statement list, not the chunk: Neo4j executes statements in
// order and stops at the first failure, so the index is the chunk offset
// plus the number of completed results in the failing response.
type StatementError struct {
	Code           string                 `json:"code"`
	Type           string                 `json:"type"`
	Message        string                 `json:"message"`
	Details        map[string]interface{} `json:"details,omitempty"`
	StatementIndex int                    `json:"statement_index"`
	Errors         []protocol.ServerError `json:"errors"`
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return marshalError(e.Code, e.Type, e.Message, e.Details, nil, e)
}

// FormatError formats the error based on debug mode.
func (e *StatementError) FormatError(debugMode bool) string {
	if !debugMode {
		if len(e.Errors) > 0 {
			return fmt.Sprintf("%s: %s (statement %d: %s)", e.Code, e.Message, e.StatementIndex, e.Errors[0].Code)
		}
		return fmt.Sprintf("%s: %s (statement %d)", e.Code, e.Message, e.StatementIndex)
	}
	return indentError(e.Code, e.Type, e.Message, e.Details, nil, e)
}

// ErrBatchSize creates an ArgumentError for a non-positive batch size.
func ErrBatchSize(batchSize int) *ArgumentError {
	return &ArgumentError{
		Code:    CodeInvalidArgument,
		Type:    "ARGUMENT_ERROR",
		Message: "batch size must be a positive integer",
		Details: map[string]interface{}{
			"batchSize": batchSize,
		},
	}
}

// ErrInvalidHost creates an ArgumentError for a host that is not a valid
// HTTP(S) endpoint.
func ErrInvalidHost(host string, cause error) *ArgumentError {
	return &ArgumentError{
		Code:    CodeInvalidArgument,
		Type:    "ARGUMENT_ERROR",
		Message: "host must be a valid http(s) endpoint",
		Details: map[string]interface{}{
			"host": host,
		},
		Cause: cause,
	}
}

// ErrMalformedStatements creates an ArgumentError for a statement list
// that cannot be serialized.
func ErrMalformedStatements(cause error) *ArgumentError {
	return &ArgumentError{
		Code:    CodeInvalidArgument,
		Type:    "ARGUMENT_ERROR",
		Message: "statement list cannot be serialized",
		Cause:   cause,
	}
}

// ErrRequestFailed creates a RequestError for a transport failure or a
// non-2xx HTTP status.
func ErrRequestFailed(statusCode int, cause error, details map[string]interface{}) *RequestError {
	message := "request to transactional endpoint failed"
	if statusCode != 0 && cause == nil {
		message = fmt.Sprintf("transactional endpoint returned HTTP %d", statusCode)
	}

	return &RequestError{
		Code:       CodeRequestFailed,
		Type:       "REQUEST_ERROR",
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewStatementError creates a StatementError from the server's error list.
func NewStatementError(statementIndex int, serverErrors []protocol.ServerError) *StatementError {
	return &StatementError{
		Code:           CodeStatementFailed,
		Type:           "STATEMENT_ERROR",
		Message:        fmt.Sprintf("database reported %d error(s); transaction rolled back", len(serverErrors)),
		StatementIndex: statementIndex,
		Errors:         serverErrors,
	}
}

// FormatError formats any error with debug mode support.
func FormatError(err error, debugMode bool) string {
	if err == nil {
		return ""
	}

	type debugFormatter interface {
		FormatError(bool) string
	}

	if formatter, ok := err.(debugFormatter); ok {
		return formatter.FormatError(debugMode)
	}

	return err.Error()
}

// Rendering helpers shared by the error types.

func errorData(code, typ, message string, details map[string]interface{}, cause error, stmt *StatementError) map[string]interface{} {
	data := map[string]interface{}{
		"code":    code,
		"type":    typ,
		"message": message,
	}

	if len(details) > 0 {
		data["details"] = details
	}

	if cause != nil {
		data["cause"] = map[string]interface{}{
			"message": cause.Error(),
		}
	}

	if stmt != nil {
		data["statement_index"] = stmt.StatementIndex
		data["errors"] = stmt.Errors
	}

	return data
}

func marshalError(code, typ, message string, details map[string]interface{}, cause error, stmt *StatementError) string {
	b, _ := json.Marshal(errorData(code, typ, message, details, cause, stmt))
	return string(b)
}

func indentError(code, typ, message string, details map[string]interface{}, cause error, stmt *StatementError) string {
	b, _ := json.MarshalIndent(errorData(code, typ, message, details, cause, stmt), "", "  ")
	return string(b)
}

func compactError(code, message string, cause error) string {
	if cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %s)", code, message, cause.Error())
	}
	return fmt.Sprintf("%s: %s", code, message)
}

func cloneDetails(details map[string]interface{}) map[string]interface{} {
	cloned := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		cloned[k] = v
	}
	return cloned
}
