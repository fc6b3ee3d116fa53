// ABOUTME: Newline-delimited framing, one JSON document per line
// ABOUTME: Buffers partial reads and reassembles lines across socket reads

package framing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

type NewlineFramer struct {
	rw       io.ReadWriter
	reader   *bufio.Reader
	maxFrame int
}

func NewNewlineFramer(rw io.ReadWriter, maxFrame int) *NewlineFramer {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &NewlineFramer{
		rw:       rw,
		reader:   bufio.NewReader(rw),
		maxFrame: maxFrame,
	}
}

func (f *NewlineFramer) WriteFrame(payload []byte) error {
	if bytes.IndexByte(payload, '\n') >= 0 {
		return fmt.Errorf("payload contains unescaped newline")
	}

	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, payload...)
	buf = append(buf, '\n')

	if _, err := f.rw.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame returns the next complete line without its terminator.
// Partial lines stay buffered until the terminator arrives.
func (f *NewlineFramer) ReadFrame() ([]byte, error) {
	var line []byte
	for {
		chunk, err := f.reader.ReadSlice('\n')
		line = append(line, chunk...)

		if len(line) > f.maxFrame {
			return nil, fmt.Errorf("%w: line longer than %d bytes", ErrFrameTooLarge, f.maxFrame)
		}

		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}
