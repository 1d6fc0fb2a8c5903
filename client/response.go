package client

import (
	"encoding/json"
	"time"

	"github.com/localrivet/callflow/protocol"
)

// Metadata describes how a response was obtained.
type Metadata struct {
	// Elapsed is the time from registering the request to receiving its response.
	Elapsed time.Duration `json:"-"`
	// ExecutionTime is Elapsed in milliseconds.
	ExecutionTime int64 `json:"executionTime"`
	// PayloadSize is the size of the raw encoded response in bytes.
	PayloadSize int       `json:"payloadSize"`
	Timestamp   time.Time `json:"timestamp"`
}

// Response is the settled result of a call. Exactly one of Result and Error
// is set. A non-nil Error means the call completed but the operation failed.
type Response struct {
	ID       string                 `json:"id"`
	Method   string                 `json:"-"`
	Result   json.RawMessage        `json:"result,omitempty"`
	Error    *protocol.ErrorPayload `json:"error,omitempty"`
	Metadata Metadata               `json:"metadata"`
}

// Err returns the endpoint's error payload as a *RemoteError, or nil.
func (r *Response) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return NewRemoteError(r.Method, r.Error)
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v interface{}) error {
	if err := r.Err(); err != nil {
		return err
	}
	return protocol.DecodeResult(r.Result, v)
}

// newResponse assembles the Response for p from a decoded envelope.
func newResponse(p *pendingRequest, env *protocol.Response, size int) *Response {
	now := time.Now()
	elapsed := now.Sub(p.issuedAt)
	return &Response{
		ID:     p.id,
		Method: p.method,
		Result: env.Result,
		Error:  env.Error,
		Metadata: Metadata{
			Elapsed:       elapsed,
			ExecutionTime: elapsed.Milliseconds(),
			PayloadSize:   size,
			Timestamp:     now,
		},
	}
}
