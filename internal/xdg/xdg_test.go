package xdg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigHomeRespectsOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigHome(); got != filepath.Join("/custom/config", "mcp-probe") {
		t.Errorf("unexpected config home: %s", got)
	}
}

func TestConfigHomeDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	got := ConfigHome()
	if !strings.HasSuffix(got, filepath.Join(".config", "mcp-probe")) {
		t.Errorf("unexpected config home: %s", got)
	}
}

func TestExpandPathTilde(t *testing.T) {
	got := ExpandPath("~/logs/run.log")
	if strings.HasPrefix(got, "~") {
		t.Errorf("tilde not expanded: %s", got)
	}
	if !strings.HasSuffix(got, filepath.Join("logs", "run.log")) {
		t.Errorf("unexpected expansion: %s", got)
	}
}

func TestExpandPathXDGData(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	got := ExpandPath("$XDG_DATA_HOME/mcp-probe/capture.db")
	if got != "/data/mcp-probe/capture.db" {
		t.Errorf("unexpected expansion: %s", got)
	}
}

func TestExpandPathPassthrough(t *testing.T) {
	if got := ExpandPath("/absolute/path.log"); got != "/absolute/path.log" {
		t.Errorf("absolute path modified: %s", got)
	}
}
