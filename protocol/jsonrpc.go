package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingID is returned by DecodeResponse for envelopes without an id.
var ErrMissingID = errors.New("envelope has no id")

// Request is an outgoing envelope.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// NewRequest builds a request envelope. A nil params value is omitted.
func NewRequest(id, method string, params interface{}) *Request {
	return &Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// ErrorPayload is the error object of a response envelope.
type ErrorPayload struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (p *ErrorPayload) String() string {
	return fmt.Sprintf("code=%d message=%q", p.Code, p.Message)
}

// Response is an inbound envelope. Result is nil when the endpoint sent no
// result member; a JSON null result is kept as the literal "null".
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorPayload   `json:"error,omitempty"`
}

// DecodeResponse parses a response envelope. The id may be a string or a
// number and is normalized to its string form. An envelope carrying neither
// result nor error gets a synthetic ErrorCodeEmptyResponse payload.
func DecodeResponse(data []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode envelope: not an object")
	}

	rawID, ok := fields["id"]
	if !ok || isNull(rawID) {
		return nil, ErrMissingID
	}
	id, err := normalizeID(rawID)
	if err != nil {
		return nil, err
	}

	resp := &Response{ID: id}
	if result, ok := fields["result"]; ok {
		if len(result) == 0 {
			result = json.RawMessage("null")
		}
		resp.Result = result
	}
	if rawErr, ok := fields["error"]; ok && !isNull(rawErr) {
		var payload ErrorPayload
		if err := Unmarshal(rawErr, &payload); err != nil {
			return nil, fmt.Errorf("decode error member: %w", err)
		}
		resp.Error = &payload
	}

	if resp.Result == nil && resp.Error == nil {
		resp.Error = &ErrorPayload{
			Code:    ErrorCodeEmptyResponse,
			Message: "response carried neither result nor error",
		}
	}
	return resp, nil
}

// PeekID extracts the id of an envelope without decoding the rest of it.
func PeekID(data []byte) (string, error) {
	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if err := Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if isNull(envelope.ID) {
		return "", ErrMissingID
	}
	return normalizeID(envelope.ID)
}

// DecodeResult unmarshals a raw result into v.
func DecodeResult(result json.RawMessage, v interface{}) error {
	if len(result) == 0 {
		return fmt.Errorf("result is empty")
	}
	return Unmarshal(result, v)
}

func normalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var id string
		if err := Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return id, nil
	}
	if len(raw) == 0 || raw[0] == '{' || raw[0] == '[' {
		return "", fmt.Errorf("decode id: unsupported id %s", string(raw))
	}
	return string(raw), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
