package ipc

import (
	"errors"
	"fmt"

	"textinput/internal/settings"
	"textinput/internal/store"
)

// Common errors
var (
	ErrNotConnected     = errors.New("not connected to daemon")
	ErrConnectionLost   = errors.New("connection to daemon lost")
	ErrTimeout          = errors.New("request timeout")
	ErrDaemonNotRunning = errors.New("daemon is not running")
	ErrPermissionDenied = errors.New("permission denied")
	ErrClosed           = errors.New("client closed")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("daemon error %d: %s", e.Code, e.Message)
}

// Unwrap maps error codes back to the sentinel errors callers match on,
// so errors.Is(err, settings.ErrUnsupported) holds across the socket.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case ErrCodeUnsupported:
		return settings.ErrUnsupported
	case ErrCodePermissionDenied:
		return ErrPermissionDenied
	case ErrCodeRateLimited:
		return ErrRateLimited
	}
	return nil
}

// errorCode picks the wire code for a handler error.
func errorCode(err error) int {
	switch {
	case errors.Is(err, settings.ErrUnsupported):
		return ErrCodeUnsupported
	case errors.Is(err, ErrPermissionDenied):
		return ErrCodePermissionDenied
	case errors.Is(err, store.ErrUnknownTable), errors.Is(err, store.ErrInvalidName):
		return ErrCodeInvalidRequest
	}
	return ErrCodeInternal
}

// decodeError turns an MsgError payload into a *RemoteError.
func decodeError(msg *Message) error {
	var resp ErrorResponse
	if err := Decode(msg.Payload, &resp); err != nil {
		return &RemoteError{Code: ErrCodeUnknown, Message: "malformed error response"}
	}
	return &RemoteError{Code: resp.Code, Message: resp.Message}
}
