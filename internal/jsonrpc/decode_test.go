package jsonrpc

import "testing"

func TestDecodeRequest(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","method":"ping","id":3}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	req, ok := msg.(*Request)
	if !ok {
		t.Fatalf("expected *Request, got %T", msg)
	}
	if req.Method != "ping" {
		t.Errorf("expected method ping, got %s", req.Method)
	}
}

func TestDecodeNotification(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","method":"notifications/progress","params":{"progress":50}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if _, ok := msg.(*Notification); !ok {
		t.Fatalf("expected *Notification, got %T", msg)
	}
}

func TestDecodeResponse(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","result":{},"id":3}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	resp, ok := msg.(*Response)
	if !ok {
		t.Fatalf("expected *Response, got %T", msg)
	}
	if resp.Error != nil {
		t.Error("expected no error in success response")
	}
}

func TestDecodeErrorResponse(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","error":{"code":-32700,"message":"Parse error"},"id":null}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	resp, ok := msg.(*Response)
	if !ok {
		t.Fatalf("expected *Response, got %T", msg)
	}
	if resp.Error == nil || resp.Error.Code != ParseError {
		t.Errorf("expected parse error code, got %+v", resp.Error)
	}
}

func TestDecodeNullResultIsPresent(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","result":null,"id":1}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := msg.(*Response); !ok {
		t.Fatalf("expected *Response, got %T", msg)
	}
}

func TestDecodeRejectsBothResultAndError(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","result":{},"error":{"code":-32000,"message":"x"},"id":1}`))
	if err == nil {
		t.Fatal("expected decode to fail")
	}
}

func TestDecodeRejectsNeitherResultNorError(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0","id":1}`))
	if err == nil {
		t.Fatal("expected decode to fail")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"2.0",`))
	if err == nil {
		t.Fatal("expected decode to fail")
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"jsonrpc":"1.0","method":"ping","id":1}`))
	if err == nil {
		t.Fatal("expected decode to fail")
	}
}
