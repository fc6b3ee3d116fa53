// ABOUTME: Rendering of log entries for live display and file persistence
// ABOUTME: Styles the live stream by source and level, keeps the file plain

package logagg

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const fileTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	styleDeviceInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDriverInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleError      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleWarning    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleTest       = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
)

func entryStyle(e Entry) lipgloss.Style {
	switch e.Level {
	case LevelError:
		return styleError
	case LevelWarning:
		return styleWarning
	case LevelTest:
		return styleTest
	}
	if e.Source == SourceDevice {
		return styleDeviceInfo
	}
	return styleDriverInfo
}

// plainLine is the uncolored live rendering, also sent to broadcasters.
func plainLine(e Entry) string {
	return fmt.Sprintf("%s %7s: %s", e.Timestamp.Format("15:04:05.000"), e.Source, e.Message)
}

func renderEntry(e Entry, noColor bool) string {
	line := plainLine(e)
	if noColor {
		return line
	}
	return entryStyle(e).Render(line)
}

// fileLine is the persisted form: ISO-8601 timestamp, bracketed
// right-aligned source tag, right-aligned level tag, message.
func fileLine(e Entry) string {
	return fmt.Sprintf("%s [%7s] %5s: %s\n",
		e.Timestamp.Format(fileTimestampLayout), e.Source, e.Level, e.Message)
}
