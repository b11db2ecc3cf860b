package docr

import (
	"errors"
	"fmt"
)

// Engine status codes. Backends report their own codes where they have them;
// these are used when a failure has no code of its own.
const (
	CodeFail           uint32 = 0x80004005
	CodeNotImplemented uint32 = 0x80004001
	CodeInvalidArg     uint32 = 0x80070057
	CodeOutOfMemory    uint32 = 0x8007000E
	CodeUnavailable    uint32 = 0x800710D9
)

// Error is the closed set of failures a recognition call can produce.
// The only implementations are *RuntimeError and *OperationError.
type Error interface {
	error
	docrError()
}

// RuntimeError is a failure reported by the OCR engine layer. Code is the
// engine's own status code and is preserved verbatim.
type RuntimeError struct {
	Message string
	Code    uint32
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Engine error: %s Code: %d.", e.Message, e.Code)
}

func (e *RuntimeError) docrError() {}

// OperationError is a failure detected by docr itself: an unsupported
// language, an unreadable image, a malformed pixel buffer.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string {
	return "Error: " + e.Message
}

func (e *OperationError) docrError() {}

// NewRuntimeError returns an engine failure with the given message and code.
func NewRuntimeError(msg string, code uint32) *RuntimeError {
	return &RuntimeError{Message: msg, Code: code}
}

// NewOperationError returns a validation failure.
func NewOperationError(msg string) *OperationError {
	return &OperationError{Message: msg}
}

// Operationf formats a validation failure.
func Operationf(format string, args ...any) *OperationError {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// Classify maps any error onto the docr taxonomy. Errors already carrying a
// *RuntimeError or *OperationError in their chain are returned as that value;
// everything else is an engine-layer failure with CodeFail.
func Classify(err error) Error {
	if err == nil {
		return nil
	}

	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}

	var oe *OperationError
	if errors.As(err, &oe) {
		return oe
	}

	return &RuntimeError{Message: err.Error(), Code: CodeFail}
}

// IsOperation reports whether err classifies as an OperationError.
func IsOperation(err error) bool {
	_, ok := Classify(err).(*OperationError)
	return ok
}

// IsRuntime reports whether err classifies as a RuntimeError.
func IsRuntime(err error) bool {
	_, ok := Classify(err).(*RuntimeError)
	return ok
}
