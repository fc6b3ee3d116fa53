// ABOUTME: Leveled logging for probe tooling with a verbosity gate
// ABOUTME: Wraps stdlib log so existing log.Printf output stays aligned

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
)

// SetVerbose lowers the threshold to DEBUG when enabled.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		minLevel = LevelDebug
	} else {
		minLevel = LevelInfo
	}
}

// IsVerbose reports whether DEBUG output is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return minLevel == LevelDebug
}

// SetOutput sets the destination for all log output. nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(w)
	}
}

func emit(level Level, format string, args ...interface{}) {
	mu.Lock()
	skip := level < minLevel
	mu.Unlock()
	if skip {
		return
	}
	log.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) { emit(LevelDebug, format, args...) }
func Info(format string, args ...interface{})  { emit(LevelInfo, format, args...) }
func Warn(format string, args ...interface{})  { emit(LevelWarn, format, args...) }
func Error(format string, args ...interface{}) { emit(LevelError, format, args...) }
