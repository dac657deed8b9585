package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fixwire/internal/protocol/fix"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaultsAndOverrides(t *testing.T) {
	path := writeFile(t, `
name = "fix-gw"
delimiter = "pipe"
max_message_bytes = 1024
cors_origins = ["http://localhost:3000"]
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "fix-gw" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.Addr != ":9400" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.DelimiterByte() != fix.Pipe {
		t.Fatalf("unexpected delimiter: %q", cfg.DelimiterByte())
	}
	if cfg.InitialCapacity != fix.DefaultCapacity {
		t.Fatalf("expected default capacity, got %d", cfg.InitialCapacity)
	}
	if cfg.MaxMessageBytes != 1024 {
		t.Fatalf("unexpected max message bytes: %d", cfg.MaxMessageBytes)
	}
	if len(cfg.CorsOrigins) != 1 {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}
}

func TestLoadServerConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"delimiter": `delimiter = "="`,
		"capacity":  `initial_capacity = 0`,
		"addr":      `addr = " "`,
		"syntax":    `name = `,
	}
	for name, body := range cases {
		if _, err := LoadServerConfig(writeFile(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]byte{
		"":     fix.SOH,
		"SOH":  fix.SOH,
		`\x01`: fix.SOH,
		"pipe": fix.Pipe,
		"|":    fix.Pipe,
		";":    ';',
	}
	for raw, want := range cases {
		got, err := ParseDelimiter(raw)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	for _, bad := range []string{"=", "7", "ab"} {
		if _, err := ParseDelimiter(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWriteTemplateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected exists error, got %v", err)
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Name != "fixwire" || cfg.DelimiterByte() != fix.SOH {
		t.Fatalf("unexpected template config: %+v", cfg)
	}
}
