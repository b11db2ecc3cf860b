package docr

import "net/http"

// ABI return codes that are not engine status codes.
const (
	ABISuccess        int32 = 0
	ABIPrecondition   int32 = -1
	ABIBufferTooSmall int32 = -2
)

// ExitCode is the process exit status for a CLI run that ended with err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// ABICode is the value a native-ABI entry point returns for err. Engine
// failures return their status code reinterpreted as int32; every
// OperationError returns ABIPrecondition.
func ABICode(err error) int32 {
	switch e := Classify(err).(type) {
	case nil:
		return ABISuccess
	case *RuntimeError:
		return int32(e.Code)
	default:
		return ABIPrecondition
	}
}

// ExceptionKind names the exception class an interpreter binding raises.
type ExceptionKind string

const (
	ExceptionOS      ExceptionKind = "OSError"
	ExceptionValue   ExceptionKind = "ValueError"
	ExceptionRuntime ExceptionKind = "RuntimeError"
)

// Exception maps err to the interpreter exception kind and message.
func Exception(err error) (ExceptionKind, string) {
	switch e := Classify(err).(type) {
	case nil:
		return "", ""
	case *RuntimeError:
		return ExceptionOS, e.Error()
	default:
		return ExceptionValue, e.Error()
	}
}

// EnumerationException is the exception raised when listing the supported
// languages fails.
func EnumerationException(err error) (ExceptionKind, string) {
	if err == nil {
		return "", ""
	}
	return ExceptionRuntime, "Could not get supported languages. " + Classify(err).Error()
}

// HTTPStatus is the response status the HTTP facade uses for err.
func HTTPStatus(err error) int {
	switch Classify(err).(type) {
	case nil:
		return http.StatusOK
	case *RuntimeError:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
