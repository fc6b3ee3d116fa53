package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestParseRequest(t *testing.T) {
	data := []byte(`{
		"jsonrpc": "2.0",
		"method": "tools/call",
		"params": {"name": "echo", "arguments": {"text": "hi"}},
		"id": 1
	}`)

	var req Request
	err := json.Unmarshal(data, &req)
	if err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if req.JSONRPC != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %s", req.JSONRPC)
	}

	if req.Method != "tools/call" {
		t.Errorf("expected method tools/call, got %s", req.Method)
	}

	if req.ID == nil {
		t.Error("expected id to be set")
	}
}

func TestParseResponse(t *testing.T) {
	data := []byte(`{
		"jsonrpc": "2.0",
		"result": {"content": [{"type": "text", "text": "hi"}]},
		"id": 1
	}`)

	var resp Response
	err := json.Unmarshal(data, &resp)
	if err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if resp.Result == nil {
		t.Error("expected result to be set")
	}
}

func TestParseError(t *testing.T) {
	data := []byte(`{
		"jsonrpc": "2.0",
		"error": {
			"code": -32601,
			"message": "Tool not found",
			"data": {"tool": "nonexistent_tool"}
		},
		"id": 1
	}`)

	var resp Response
	err := json.Unmarshal(data, &resp)
	if err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if resp.Error == nil {
		t.Fatal("expected error to be set")
	}

	if resp.Error.Code != -32601 {
		t.Errorf("expected code -32601, got %d", resp.Error.Code)
	}
}

func TestIDEqual(t *testing.T) {
	if !IDEqual(NumberID(7), NumberID(7)) {
		t.Error("equal numeric ids reported unequal")
	}

	if IDEqual(NumberID(7), NumberID(8)) {
		t.Error("different numeric ids reported equal")
	}

	if IDEqual(StringID("7"), NumberID(7)) {
		t.Error(`"7" and 7 are different wire values`)
	}

	if IDEqual(NumberID(1), nil) {
		t.Error("id compared equal to nil")
	}

	if !IDEqual(nil, nil) {
		t.Error("nil ids should compare equal")
	}
}

func TestStringIDRoundTrip(t *testing.T) {
	id := StringID("init")

	req := Request{JSONRPC: Version, Method: "initialize", ID: id}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var back Request
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if !IDEqual(back.ID, id) {
		t.Errorf("id not echoed verbatim: %s vs %s", *back.ID, *id)
	}
}
