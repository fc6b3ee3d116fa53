// ABOUTME: Message framing over a byte stream for the device wire protocol
// ABOUTME: Supports newline-delimited and 4-byte length-prefixed variants

package framing

import (
	"errors"
	"fmt"
)

// DefaultMaxFrameSize bounds memory against a misbehaving or corrupted
// peer. Matches the device-side limit.
const DefaultMaxFrameSize = 1 << 20 // 1 MiB

var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Framer writes and reads complete messages over an underlying byte
// stream. Read and write deadlines belong to the owner of the stream;
// a ReadFrame blocked on a slow peer returns the stream's timeout error.
type Framer interface {
	WriteFrame(payload []byte) error
	ReadFrame() ([]byte, error)
}

// Mode selects the wire framing variant.
type Mode string

const (
	ModeNewline      Mode = "newline"
	ModeLengthPrefix Mode = "length-prefix"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNewline, ModeLengthPrefix:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown framing mode %q", s)
}
