// ABOUTME: Log entry model shared by the aggregator's producers and consumer
// ABOUTME: Classifies device console lines by their embedded level markers

package logagg

import (
	"strings"
	"time"
)

// Source identifies which producer created an entry.
type Source string

const (
	SourceDevice Source = "DEVICE" // serial console reader
	SourceDriver Source = "DRIVER" // test driver / subprocess reader
)

// Level is the severity classification of one entry.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARN"
	LevelInfo    Level = "INFO"
	LevelDebug   Level = "DEBUG"
	LevelVerbose Level = "VERB"
	LevelTest    Level = "TEST"
)

// Entry is immutable after creation: produced by exactly one producer
// goroutine, consumed by exactly one consumer goroutine.
type Entry struct {
	Timestamp time.Time
	Source    Source
	Level     Level
	Message   string
	Raw       string
}

// NewEntry stamps a fresh entry for producers outside this package.
func NewEntry(source Source, level Level, message string) Entry {
	return newEntry(source, level, message, "")
}

func newEntry(source Source, level Level, message, raw string) Entry {
	return Entry{
		Timestamp: time.Now(),
		Source:    source,
		Level:     level,
		Message:   message,
		Raw:       raw,
	}
}

// ClassifyConsoleLine derives an entry from one decoded console line.
// The device's log convention is "L (ticks) component: message" with a
// single-letter level marker; lines outside that shape pass through as
// INFO with the raw text preserved.
func ClassifyConsoleLine(line string) Entry {
	level := LevelInfo
	switch {
	case strings.Contains(line, "E ("):
		level = LevelError
	case strings.Contains(line, "W ("):
		level = LevelWarning
	case strings.Contains(line, "D ("):
		level = LevelDebug
	case strings.Contains(line, "V ("):
		level = LevelVerbose
	}

	message := line
	if idx := strings.Index(line, ") "); idx >= 0 {
		rest := line[idx+2:]
		if comp, msg, ok := strings.Cut(rest, ": "); ok {
			message = "[" + comp + "] " + msg
		} else if rest != "" {
			message = rest
		}
	}

	return newEntry(SourceDevice, level, message, line)
}
