// Package rpc defines the JSON-RPC 2.0 envelope used between the assistant
// bridge and the tenancy tool server.
//
// The protocol is line-delimited: one JSON object per line on the spawned
// process's stdin/stdout. Only the envelope lives here; framing and dispatch
// belong to internal/toolserver, and the client side to internal/bridge.
package rpc

import "encoding/json"

// Version is the fixed protocol version field value.
const Version = "2.0"

// Error codes used by the tool server. The -327xx values follow the JSON-RPC
// spec; -32000 is the implementation-defined tool execution failure.
const (
	// CodeMethodNotFound is returned for a request whose method has no
	// dispatch entry.
	CodeMethodNotFound = -32601

	// CodeToolError is returned when a registered tool fails during
	// execution. Error.Data carries the stack trace.
	CodeToolError = -32000
)

// Request is a single JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is the error object carried by a failed Response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface so bridge callers can surface the
// server's message directly.
func (e *Error) Error() string {
	return e.Message
}

// Response is a single JSON-RPC response. Exactly one of Result and Error is
// set; the ID always echoes the request's.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewRequest builds a request for method with params marshalled to JSON.
// A nil params map is sent as an empty object so the server never sees a
// missing params field.
func NewRequest(id int, method string, params map[string]any) (Request, error) {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, err
	}
	idRaw, err := json.Marshal(id)
	if err != nil {
		return Request{}, err
	}
	return Request{
		JSONRPC: Version,
		ID:      idRaw,
		Method:  method,
		Params:  raw,
	}, nil
}

// ResultResponse builds a success response echoing id, with result
// marshalled to JSON.
func ResultResponse(id json.RawMessage, result any) (Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{JSONRPC: Version, ID: id, Result: raw}, nil
}

// ErrorResponse builds an error response echoing id.
func ErrorResponse(id json.RawMessage, code int, message, data string) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}
