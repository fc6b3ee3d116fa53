// ABOUTME: Error taxonomy for the framed client
// ABOUTME: Separates transport faults from protocol faults for callers

package client

import (
	"errors"
	"fmt"
	"net"
	"os"
)

var ErrNotConnected = errors.New("not connected")

// TransportError is a socket-level failure: refused, reset, or timed out.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a wire-level failure: a malformed frame, an oversize
// length header, or an envelope missing required fields. The connection
// is not automatically assumed unusable.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsTimeout reports whether an operation failed on its deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
