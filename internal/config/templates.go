package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func Template() (string, error) {
	cfg := DefaultServerConfig()
	cfg.CorsOrigins = []string{"http://localhost:3000"}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(data), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
