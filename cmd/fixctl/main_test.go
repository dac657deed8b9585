package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fixwire/internal/protocol/fix"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/danmuck/fixwire/internal/testutil/testlog"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	testlog.Start(t)
	var out bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out)
	return code, out.String()
}

func TestDumpPipeDelimited(t *testing.T) {
	code, out := runCLI(t, "8=FIX.4.2|35=D|5001=x=y|\n", "dump", "-delim", "pipe", "-color", "never")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, out)
	}
	for _, want := range []string{"message 1 (3 fields)", "8 (BeginString) = FIX.4.2", "5001 = x=y"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestDumpColorAlways(t *testing.T) {
	code, out := runCLI(t, "8=FIX.4.2|\n", "dump", "-delim", "pipe", "-color", "always")
	if code != 0 || !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ansi output, exit %d: %q", code, out)
	}
}

func TestGetLastFirstAndAll(t *testing.T) {
	in := "8=FIX.4.2|58=a|58=b|\n8=FIX.4.2|35=D|\n"
	code, out := runCLI(t, in, "get", "-delim", "pipe", "-tag", "58")
	if code != 0 || out != "1\tb\n" {
		t.Fatalf("last: exit %d out %q", code, out)
	}
	_, out = runCLI(t, in, "get", "-delim", "pipe", "-tag", "58", "-first")
	if out != "1\ta\n" {
		t.Fatalf("first: %q", out)
	}
	_, out = runCLI(t, in, "get", "-delim", "pipe", "-tag", "58", "-all")
	if out != "1\ta\n1\tb\n" {
		t.Fatalf("all: %q", out)
	}
	if code, _ := runCLI(t, in, "get", "-delim", "pipe"); code != 1 {
		t.Fatalf("missing -tag should fail, got %d", code)
	}
}

func TestCheckReportsMalformed(t *testing.T) {
	in := "8=FIX.4.4\x0135=D\x01\nAV=BAD\x0135=D\x01\n"
	code, out := runCLI(t, in, "check", "-color", "never")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d: %s", code, out)
	}
	if !strings.Contains(out, "message 2: fix: malformed tag") || !strings.Contains(out, "2 messages, 1 malformed") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	code, out = runCLI(t, "8=FIX.4.4\x0135=D\x01\n", "check")
	if code != 0 || !strings.Contains(out, "1 messages, 0 malformed") {
		t.Fatalf("expected clean check, exit %d: %s", code, out)
	}
}

func TestCheckTrailerModeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.fix")
	raw := "8=FIX.4.4\x0135=D\x0110=001\x018=FIX.4.4\x0135=8\x0110=002\x01"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	code, out := runCLI(t, "", "check", "-mode", "trailer", path)
	if code != 0 || !strings.Contains(out, "2 messages, 0 malformed") {
		t.Fatalf("exit %d: %s", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, out := runCLI(t, "", "frobnicate"); code != 2 || !strings.Contains(out, "usage") {
		t.Fatalf("expected usage, exit %d", code)
	}
}

func TestLoadOptionsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixctl.toml")
	body := `
delimiter = "pipe"
mode = "trailer"
color = "never"
max_message_bytes = 512
server_config = " fixwire.toml "
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts, err := loadOptions(path)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	if opts.Delimiter != fix.Pipe || opts.Mode != frame.ModeTrailer || opts.Color != colorNever {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.Limits.MaxMessageBytes != 512 || opts.ServerConfig != "fixwire.toml" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestLoadOptionsKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixctl.toml")
	if err := os.WriteFile(path, []byte("color = \"auto\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts, err := loadOptions(path)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	want := defaultOptions()
	if opts.Delimiter != want.Delimiter || opts.Mode != want.Mode || opts.Limits != want.Limits {
		t.Fatalf("expected defaults, got %+v", opts)
	}
}

func TestLoadOptionsRejectsBadValues(t *testing.T) {
	for _, body := range []string{`delimiter = "="`, `mode = "xml"`, `color = "rainbow"`, `max_message_bytes = 0`} {
		path := filepath.Join(t.TempDir(), "fixctl.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadOptions(path); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestConfigWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixwire.toml")
	if code, _ := runCLI(t, "", "config", "-output", path); code != 0 {
		t.Fatalf("config exit %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if code, _ := runCLI(t, "", "config", "-output", path); code != 1 {
		t.Fatalf("expected refusal to overwrite, got %d", code)
	}
}
