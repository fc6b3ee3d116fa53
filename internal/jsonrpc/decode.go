// ABOUTME: Single decode step classifying raw frames into a closed message set
// ABOUTME: Replaces ad-hoc field checks with request/notification/response variants

package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Message is one of *Request, *Notification, or *Response.
type Message interface {
	kind() string
}

func (*Request) kind() string      { return "request" }
func (*Notification) kind() string { return "notification" }
func (*Response) kind() string     { return "response" }

// DecodeMessage parses a raw frame and classifies it by envelope shape:
// a method with an id is a request, a method without an id is a
// notification, and otherwise it must be a well-formed response carrying
// exactly one of result or error.
func DecodeMessage(data []byte) (Message, error) {
	var envelope struct {
		JSONRPC string           `json:"jsonrpc"`
		Method  string           `json:"method"`
		Params  json.RawMessage  `json:"params"`
		Result  json.RawMessage  `json:"result"`
		Error   *Error           `json:"error"`
		ID      *json.RawMessage `json:"id"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	if envelope.JSONRPC != Version {
		return nil, fmt.Errorf("unsupported jsonrpc version %q", envelope.JSONRPC)
	}

	if envelope.Method != "" {
		if envelope.ID != nil {
			return &Request{
				JSONRPC: envelope.JSONRPC,
				Method:  envelope.Method,
				Params:  envelope.Params,
				ID:      envelope.ID,
			}, nil
		}
		return &Notification{
			JSONRPC: envelope.JSONRPC,
			Method:  envelope.Method,
			Params:  envelope.Params,
		}, nil
	}

	// A literal null result still counts as present: the key was on the wire.
	hasResult := len(envelope.Result) > 0
	if hasResult && envelope.Error != nil {
		return nil, fmt.Errorf("response carries both result and error")
	}
	if !hasResult && envelope.Error == nil {
		return nil, fmt.Errorf("response carries neither result nor error")
	}

	return &Response{
		JSONRPC: envelope.JSONRPC,
		Result:  envelope.Result,
		Error:   envelope.Error,
		ID:      envelope.ID,
	}, nil
}
