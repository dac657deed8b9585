package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fixwire/internal/config"
	"github.com/danmuck/fixwire/internal/protocol/fix"
	"github.com/danmuck/fixwire/internal/protocol/frame"
)

type fileConfig struct {
	Delimiter       string `toml:"delimiter"`
	Mode            string `toml:"mode"`
	Color           string `toml:"color"`
	MaxMessageBytes int    `toml:"max_message_bytes"`
	ServerConfig    string `toml:"server_config"`
}

type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

// options are the resolved settings shared by every subcommand.
type options struct {
	Delimiter    byte
	Mode         frame.Mode
	Color        colorMode
	Limits       frame.Limits
	ServerConfig string
}

func defaultOptions() options {
	return options{
		Delimiter: fix.SOH,
		Mode:      frame.ModeLines,
		Color:     colorAuto,
		Limits:    frame.DefaultLimits(),
	}
}

func loadOptions(path string) (options, error) {
	opts := defaultOptions()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return options{}, fmt.Errorf("load fixctl config: %w", err)
	}

	if meta.IsDefined("delimiter") {
		d, err := config.ParseDelimiter(raw.Delimiter)
		if err != nil {
			return options{}, fmt.Errorf("parse delimiter: %w", err)
		}
		opts.Delimiter = d
	}

	if meta.IsDefined("mode") {
		m, err := frame.ParseMode(raw.Mode)
		if err != nil {
			return options{}, fmt.Errorf("parse mode: %w", err)
		}
		opts.Mode = m
	}

	if meta.IsDefined("color") {
		c, err := parseColorMode(raw.Color)
		if err != nil {
			return options{}, err
		}
		opts.Color = c
	}

	if meta.IsDefined("max_message_bytes") {
		if raw.MaxMessageBytes < 1 {
			return options{}, fmt.Errorf("max_message_bytes must be positive")
		}
		opts.Limits.MaxMessageBytes = raw.MaxMessageBytes
	}

	if meta.IsDefined("server_config") {
		opts.ServerConfig = strings.TrimSpace(raw.ServerConfig)
	}

	return opts, nil
}

func parseColorMode(raw string) (colorMode, error) {
	switch c := colorMode(strings.ToLower(strings.TrimSpace(raw))); c {
	case colorAuto, colorAlways, colorNever:
		return c, nil
	case "":
		return colorAuto, nil
	default:
		return "", fmt.Errorf("unknown color mode %q", raw)
	}
}
