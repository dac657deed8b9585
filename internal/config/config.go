package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/fixwire/internal/protocol/fix"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Name            string   `toml:"name"`
	Addr            string   `toml:"addr"`
	CorsOrigins     []string `toml:"cors_origins"`
	Delimiter       string   `toml:"delimiter"`
	InitialCapacity int      `toml:"initial_capacity"`
	MaxMessageBytes int      `toml:"max_message_bytes"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:            "fixwire",
		Addr:            ":9400",
		Delimiter:       "soh",
		InitialCapacity: fix.DefaultCapacity,
		MaxMessageBytes: frame.DefaultLimits().MaxMessageBytes,
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if _, err := ParseDelimiter(cfg.Delimiter); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if cfg.InitialCapacity < 1 {
		return fmt.Errorf("server config initial_capacity must be positive")
	}
	if cfg.MaxMessageBytes < 1 {
		return fmt.Errorf("server config max_message_bytes must be positive")
	}
	return nil
}

// DelimiterByte returns the parsed delimiter. cfg must be valid.
func (cfg ServerConfig) DelimiterByte() byte {
	d, err := ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return fix.SOH
	}
	return d
}

// ParseDelimiter accepts "soh", "pipe", a \x01 escape, or any single byte
// that cannot appear in a tag.
func ParseDelimiter(raw string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "soh", `\x01`, `\u0001`, "^a":
		return fix.SOH, nil
	case "pipe", "|":
		return fix.Pipe, nil
	}
	if len(raw) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", raw)
	}
	b := raw[0]
	if b == '=' || (b >= '0' && b <= '9') {
		return 0, fmt.Errorf("delimiter %q collides with tag syntax", raw)
	}
	return b, nil
}
