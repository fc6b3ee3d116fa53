// ABOUTME: JSON-RPC 2.0 message types for the MCP device protocol
// ABOUTME: Implements request, response, notification, and error structures

package jsonrpc

import "encoding/json"

const Version = "2.0"

type Request struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
	ID      *json.RawMessage `json:"id,omitempty"`
}

type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
	ID      *json.RawMessage `json:"id,omitempty"`
}

// Notification is a one-way message: a method with no id, expecting no reply.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Standard JSON-RPC error codes. Device-reported codes pass through as-is.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
	ServerError    = -32000
)

// NumberID encodes an integer request identifier.
func NumberID(n uint64) *json.RawMessage {
	data, _ := json.Marshal(n)
	raw := json.RawMessage(data)
	return &raw
}

// StringID encodes a string request identifier.
func StringID(s string) *json.RawMessage {
	data, _ := json.Marshal(s)
	raw := json.RawMessage(data)
	return &raw
}

// IDEqual reports whether two identifiers carry the same wire value.
// The device must echo ids verbatim, so byte comparison is sufficient.
func IDEqual(a, b *json.RawMessage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return string(*a) == string(*b)
}
