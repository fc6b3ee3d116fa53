// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers defaults, env key case preservation, and path expansion

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
target:
  host: "192.168.4.1"
  port: 9090
  framing: "length-prefix"
serial:
  port: "/dev/ttyUSB0"
log:
  file: "session.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Target.Host != "192.168.4.1" {
		t.Errorf("expected host 192.168.4.1, got %s", cfg.Target.Host)
	}

	if cfg.Target.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Target.Port)
	}

	if cfg.Target.Framing != "length-prefix" {
		t.Errorf("expected framing length-prefix, got %s", cfg.Target.Framing)
	}

	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("expected serial port /dev/ttyUSB0, got %s", cfg.Serial.Port)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
target:
  host: "10.0.0.5"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Target.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Target.Port)
	}

	if cfg.Target.Framing != "newline" {
		t.Errorf("expected default framing newline, got %s", cfg.Target.Framing)
	}

	if cfg.Target.TimeoutSeconds != 10 {
		t.Errorf("expected default timeout 10, got %d", cfg.Target.TimeoutSeconds)
	}

	if cfg.Serial.Baud != 74880 {
		t.Errorf("expected default baud 74880, got %d", cfg.Serial.Baud)
	}
}

func TestLoadConfig_MissingHost(t *testing.T) {
	path := writeConfig(t, `
target:
  port: 8080
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing target.host")
	}
}

func TestLoadConfig_InvalidFraming(t *testing.T) {
	path := writeConfig(t, `
target:
  host: "10.0.0.5"
  framing: "cobs"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid framing mode")
	}
}

func TestLoadConfig_EnvCasePreservation(t *testing.T) {
	path := writeConfig(t, `
target:
  host: "10.0.0.5"
suite:
  - name: "smoke"
    script: "./scripts/smoke.sh"
    env:
      WIFI_SSID: "testnet"
      WIFI_Password: "secret"
      lowercase_var: "kept"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(cfg.Suite) != 1 {
		t.Fatalf("expected 1 suite item, got %d", len(cfg.Suite))
	}

	env := cfg.Suite[0].Env
	if env["WIFI_SSID"] != "testnet" {
		t.Errorf("expected WIFI_SSID preserved, got env map %v", env)
	}

	if env["WIFI_Password"] != "secret" {
		t.Errorf("expected WIFI_Password case preserved, got env map %v", env)
	}

	if env["lowercase_var"] != "kept" {
		t.Errorf("expected lowercase_var preserved, got env map %v", env)
	}
}

func TestLoadConfig_PathExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	path := writeConfig(t, `
target:
  host: "10.0.0.5"
log:
  file: "~/logs/session.log"
capture:
  path: "~/captures/probe.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Log.File != "/home/tester/logs/session.log" {
		t.Errorf("expected expanded log path, got %s", cfg.Log.File)
	}

	if cfg.Capture.Path != "/home/tester/captures/probe.db" {
		t.Errorf("expected expanded capture path, got %s", cfg.Capture.Path)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
