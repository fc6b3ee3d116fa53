// ABOUTME: Length-prefixed framing with a 4-byte big-endian header
// ABOUTME: Reads exact byte counts across short reads and rejects oversize frames

package framing

import (
	"encoding/binary"
	"fmt"
	"io"
)

type LengthPrefixFramer struct {
	rw       io.ReadWriter
	maxFrame int
}

func NewLengthPrefixFramer(rw io.ReadWriter, maxFrame int) *LengthPrefixFramer {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &LengthPrefixFramer{rw: rw, maxFrame: maxFrame}
}

func (f *LengthPrefixFramer) WriteFrame(payload []byte) error {
	if len(payload) > f.maxFrame {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)

	if _, err := f.rw.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads the 4-byte header, then exactly the declared number of
// payload bytes. A declared length above the cap fails closed before any
// payload buffer is allocated.
func (f *LengthPrefixFramer) ReadFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(f.rw, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if int64(length) > int64(f.maxFrame) {
		return nil, fmt.Errorf("%w: declared %d bytes, cap %d", ErrFrameTooLarge, length, f.maxFrame)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.rw, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}
