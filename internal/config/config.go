// ABOUTME: Configuration loading for probe and test-runner binaries
// ABOUTME: Supports YAML files with defaults and XDG path expansion

package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harper/mcp-probe/internal/framing"
	"github.com/harper/mcp-probe/internal/xdg"
)

type Config struct {
	Target  TargetConfig  `mapstructure:"target"`
	Serial  SerialConfig  `mapstructure:"serial"`
	Log     LogConfig     `mapstructure:"log"`
	Capture CaptureConfig `mapstructure:"capture"`
	Suite   []SuiteItem   `mapstructure:"suite"`
}

type TargetConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Framing        string `mapstructure:"framing"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

type LogConfig struct {
	File     string `mapstructure:"file"`
	LivePort int    `mapstructure:"live_port"` // 0 disables the websocket stream
	NoColor  bool   `mapstructure:"no_color"`
}

type CaptureConfig struct {
	Path string `mapstructure:"path"` // empty disables sqlite capture
}

type SuiteItem struct {
	Name   string            `mapstructure:"name"`
	Script string            `mapstructure:"script"`
	Args   []string          `mapstructure:"args"`
	Env    map[string]string `mapstructure:"env"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("target.port", 8080)
	v.SetDefault("target.framing", string(framing.ModeNewline))
	v.SetDefault("target.timeout_seconds", 10)
	v.SetDefault("serial.baud", 74880)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Viper lowercases all map keys, but script environment variables
	// are case-sensitive. Re-parse the YAML to preserve key case.
	//nolint:gosec // config file path from validated user input
	data, err := os.ReadFile(path)
	if err == nil {
		var rawConfig struct {
			Suite []struct {
				Env map[string]string `yaml:"env"`
			} `yaml:"suite"`
		}
		if yaml.Unmarshal(data, &rawConfig) == nil && len(rawConfig.Suite) == len(cfg.Suite) {
			for i := range cfg.Suite {
				if len(rawConfig.Suite[i].Env) > 0 {
					cfg.Suite[i].Env = rawConfig.Suite[i].Env
				}
			}
		}
	}

	if cfg.Target.Host == "" {
		return nil, fmt.Errorf("target.host is required")
	}

	if _, err := framing.ParseMode(cfg.Target.Framing); err != nil {
		return nil, fmt.Errorf("invalid target.framing: %w", err)
	}

	cfg.Log.File = xdg.ExpandPath(cfg.Log.File)
	cfg.Capture.Path = xdg.ExpandPath(cfg.Capture.Path)

	return &cfg, nil
}
