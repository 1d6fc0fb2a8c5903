// Package protocol defines the wire envelope exchanged with a tool-serving
// endpoint: JSON-RPC 2.0 style requests and responses, error payloads and
// tool descriptors.
package protocol

// JSONRPCVersion is sent in every outgoing envelope.
const JSONRPCVersion = "2.0"

// Method names understood by tool-serving endpoints.
const (
	MethodListTools = "tools/list"
	MethodCallTool  = "tools/call"
	MethodPing      = "ping"
)

// ErrorCode is the numeric code of an error payload.
type ErrorCode int

// Standard JSON-RPC 2.0 codes.
const (
	CodeParseError     ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeInternalError  ErrorCode = -32603
)

// ErrorCodeEmptyResponse is synthesized when a response carries neither a
// result nor an error.
const ErrorCodeEmptyResponse = CodeInternalError
