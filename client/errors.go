package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localrivet/callflow/protocol"
)

// Standard error types that can be used with errors.Is()
var (
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connecting or connected")
	ErrNoConfig         = errors.New("no endpoint configuration")
	ErrConnectionClosed = errors.New("connection closed")
	ErrRequestTimeout   = errors.New("request timed out")
	ErrTransportFailure = errors.New("transport failure")
	ErrInvalidResponse  = errors.New("invalid response from endpoint")
	ErrServerError      = errors.New("endpoint reported error")
	ErrCanceled         = errors.New("operation was canceled")
	ErrInvalidConfig    = errors.New("invalid endpoint configuration")
	ErrInvalidCall      = errors.New("invalid call")
)

// ClientError is the base error type for client errors
type ClientError struct {
	Message string
	Code    int
	Cause   error
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// TransportError indicates a network or transport failure.
type TransportError struct {
	ClientError
	Transport string
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %s", e.Transport, e.ClientError.Error())
}

// Is lets errors.Is(err, ErrTransportFailure) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// TimeoutError indicates no response arrived within the deadline.
type TimeoutError struct {
	ClientError
	Operation string
	Timeout   time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v during %s", e.Timeout, e.Operation)
}

// Is lets errors.Is(err, ErrRequestTimeout) match any TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout
}

// ProtocolError indicates a malformed or unmatched inbound message.
type ProtocolError struct {
	ClientError
	Payload []byte
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.ClientError.Error())
}

// Is lets errors.Is(err, ErrInvalidResponse) match any ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// StateError indicates an operation invalid for the current status.
type StateError struct {
	ClientError
	Operation string
	Status    Status
}

// Error implements the error interface
func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed while %s: %v", e.Operation, e.Status, e.Cause)
}

// RemoteError is an error payload returned by the endpoint. It is carried by
// a Response; Response.Err converts it into an error value.
type RemoteError struct {
	ClientError
	Method string
	Data   interface{}
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	return fmt.Sprintf("endpoint error during %s (code=%d): %s", e.Method, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrServerError) match any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrServerError
}

// NewTransportError creates a new TransportError
func NewTransportError(transport, message string, cause error) error {
	return &TransportError{
		ClientError: ClientError{Message: message, Cause: cause},
		Transport:   transport,
	}
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation string, timeout time.Duration, cause error) error {
	return &TimeoutError{
		ClientError: ClientError{
			Message: fmt.Sprintf("operation timed out after %v", timeout),
			Cause:   cause,
		},
		Operation: operation,
		Timeout:   timeout,
	}
}

// NewProtocolError creates a new ProtocolError
func NewProtocolError(message string, payload []byte, cause error) error {
	return &ProtocolError{
		ClientError: ClientError{Message: message, Cause: cause},
		Payload:     payload,
	}
}

// NewStateError creates a new StateError
func NewStateError(operation string, status Status, cause error) error {
	return &StateError{
		ClientError: ClientError{Message: operation, Cause: cause},
		Operation:   operation,
		Status:      status,
	}
}

// NewRemoteError creates a RemoteError from an error payload.
func NewRemoteError(method string, payload *protocol.ErrorPayload) error {
	return &RemoteError{
		ClientError: ClientError{Message: payload.Message, Code: int(payload.Code)},
		Method:      method,
		Data:        payload.Data,
	}
}

// canceledError wraps a context error so that it matches both ErrCanceled and
// the context sentinel.
type canceledError struct {
	operation string
	cause     error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("%s canceled: %v", e.operation, e.cause)
}

func (e *canceledError) Unwrap() []error {
	return []error{ErrCanceled, e.cause}
}

func newCanceledError(operation string, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return &canceledError{operation: operation, cause: cause}
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, ErrRequestTimeout)
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsProtocolError checks if an error is a protocol error
func IsProtocolError(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

// IsStateError checks if an error is a state error
func IsStateError(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// IsRemoteError checks if an error is an endpoint-reported error
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}

// IsCanceled checks if an error stems from caller cancellation
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
