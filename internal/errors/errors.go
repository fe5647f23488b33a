package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess            Code = 0
	CodeInternal           Code = 1
	CodeUsage              Code = 2
	CodeBlocked            Code = 16
	CodeInvalidFlow        Code = 20
	CodeWalletNotConnected Code = 21
	CodeBusy               Code = 22
	CodeExecutionFault     Code = 23
	CodeBlobCorrupt        Code = 24
	CodeMalformedPayload   Code = 25
	CodeNotFound           Code = 26
)

// Error is a typed composer error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	cErr, ok := As(err)
	return ok && cErr.Code == code
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if cliErr, ok := As(err); ok {
		return int(cliErr.Code)
	}
	return int(CodeInternal)
}

// TypeName returns the envelope error type for a code.
func TypeName(code Code) string {
	switch code {
	case CodeUsage:
		return "usage_error"
	case CodeBlocked:
		return "command_blocked"
	case CodeInvalidFlow:
		return "invalid_flow"
	case CodeWalletNotConnected:
		return "wallet_not_connected"
	case CodeBusy:
		return "already_running"
	case CodeExecutionFault:
		return "execution_failed"
	case CodeBlobCorrupt:
		return "workflow_corrupt"
	case CodeMalformedPayload:
		return "malformed_payload"
	case CodeNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}
