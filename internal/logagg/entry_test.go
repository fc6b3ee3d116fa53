package logagg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyConsoleLineLevels(t *testing.T) {
	cases := []struct {
		line  string
		level Level
	}{
		{"E (1234) wifi: beacon timeout", LevelError},
		{"W (1240) mcp: slow client", LevelWarning},
		{"D (1250) mcp: frame parsed", LevelDebug},
		{"V (1260) lwip: poll", LevelVerbose},
		{"I (1270) mcp: server ready", LevelInfo},
		{"plain text with no marker", LevelInfo},
	}

	for _, tc := range cases {
		entry := ClassifyConsoleLine(tc.line)
		assert.Equal(t, tc.level, entry.Level, "line %q", tc.line)
		assert.Equal(t, SourceDevice, entry.Source)
		assert.Equal(t, tc.line, entry.Raw)
	}
}

func TestClassifyConsoleLineExtractsComponent(t *testing.T) {
	entry := ClassifyConsoleLine("I (3021) mcp_server: session initialized")
	assert.Equal(t, "[mcp_server] session initialized", entry.Message)

	// No component separator after the tick count.
	entry = ClassifyConsoleLine("I (3021) booting")
	assert.Equal(t, "booting", entry.Message)

	// Shape mismatch falls back to the raw line.
	entry = ClassifyConsoleLine("garbage output")
	assert.Equal(t, "garbage output", entry.Message)
}
