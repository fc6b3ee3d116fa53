// ABOUTME: Serial console producer polling the device's debug UART
// ABOUTME: Splits accumulated bytes into lines and survives decode failures

package logagg

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.bug.st/serial"

	"github.com/harper/mcp-probe/internal/logger"
)

const consolePollInterval = 10 * time.Millisecond

// Port is the minimal surface the console reader needs from a serial
// line, so tests can substitute an in-memory implementation.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// OpenPort opens a real serial port with a short read timeout so the
// reader loop can observe its stop signal between reads.
func OpenPort(name string, baud int) (Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(consolePollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("set serial read timeout: %w", err)
	}
	return port, nil
}

// consoleMonitor reads the serial line on its own goroutine and pushes a
// classified entry per decoded line onto the shared queue.
type consoleMonitor struct {
	port    Port
	enqueue func(Entry)
	stop    chan struct{}
	pending []byte
}

func newConsoleMonitor(port Port, enqueue func(Entry), stop chan struct{}) *consoleMonitor {
	return &consoleMonitor{port: port, enqueue: enqueue, stop: stop}
}

func (m *consoleMonitor) run() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-m.stop:
			m.flushPending()
			return
		default:
		}

		n, err := m.port.Read(buf)
		if n > 0 {
			m.consume(buf[:n])
		}
		if err != nil {
			select {
			case <-m.stop:
				// Closing the port unblocks a pending read; not a fault.
				m.flushPending()
				return
			default:
			}
			m.enqueue(newEntry(SourceDevice, LevelError, fmt.Sprintf("serial read error: %v", err), ""))
			logger.Debug("serial read error: %v", err)
			time.Sleep(consolePollInterval)
			continue
		}
		if n == 0 {
			// Read timeout; poll again.
			continue
		}
	}
}

// consume appends raw bytes and emits an entry per complete line.
// CR, LF, and CRLF terminators all split; the trailing partial line
// stays buffered for the next read.
func (m *consoleMonitor) consume(data []byte) {
	m.pending = append(m.pending, data...)

	for {
		idx := -1
		for i, b := range m.pending {
			if b == '\n' || b == '\r' {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		line := m.pending[:idx]
		rest := m.pending[idx+1:]
		if idx+1 < len(m.pending) && m.pending[idx] == '\r' && m.pending[idx+1] == '\n' {
			rest = m.pending[idx+2:]
		}
		m.pending = rest

		if text := decodeLossy(line); strings.TrimSpace(text) != "" {
			m.enqueue(ClassifyConsoleLine(strings.TrimSpace(text)))
		}
	}
}

func (m *consoleMonitor) flushPending() {
	if text := decodeLossy(m.pending); strings.TrimSpace(text) != "" {
		m.enqueue(ClassifyConsoleLine(strings.TrimSpace(text)))
	}
	m.pending = nil
}

// decodeLossy replaces invalid UTF-8 sequences instead of failing; a
// glitchy UART must never crash the reader loop.
func decodeLossy(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
