package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents standardized codes for protocol-level failures
type ErrorCode int

const (
	// Encoding errors (1000-1099)
	ErrorCodeEncodeFailed ErrorCode = 1001

	// Decoding errors (2000-2099)
	ErrorCodeMalformedResponse ErrorCode = 2001
	ErrorCodeArityMismatch     ErrorCode = 2002
)

// ProtocolError represents a failure to encode a request or decode a
// response payload
type ProtocolError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if len(e.Details) > 0 {
		detailsJSON, _ := json.Marshal(e.Details)
		return fmt.Sprintf("[%d] %s (details: %s)", e.Code, e.Message, string(detailsJSON))
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NewProtocolError creates a new protocol error
func NewProtocolError(code ErrorCode, message string, details map[string]interface{}) *ProtocolError {
	return &ProtocolError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// EncodeError creates an error for a request body that cannot be serialized
func EncodeError(cause error) *ProtocolError {
	err := NewProtocolError(ErrorCodeEncodeFailed, "failed to encode statements", nil)
	err.Cause = cause
	return err
}

// MalformedResponseError creates an error for a payload that is not valid
// transactional-commit JSON
func MalformedResponseError(cause error) *ProtocolError {
	err := NewProtocolError(ErrorCodeMalformedResponse, "response is not a valid transactional-commit payload", nil)
	err.Cause = cause
	return err
}

// ArityMismatchError creates an error for a row whose value count does not
// match its result's column count
func ArityMismatchError(resultIndex, rowIndex, columns, values int) *ProtocolError {
	return NewProtocolError(ErrorCodeArityMismatch, "row value count does not match column count", map[string]interface{}{
		"resultIndex": resultIndex,
		"rowIndex":    rowIndex,
		"columns":     columns,
		"values":      values,
	})
}
