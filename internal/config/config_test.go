package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg")
	t.Setenv("ANTHROPIC_API_KEY", "ant")
	t.Setenv("DEEPGRAM_MODEL", "")
	t.Setenv("ANTHROPIC_MODEL", "")
	t.Setenv("ANTHROPIC_BASE_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %q", cfg.Server.Addr)
	}
	if cfg.Deepgram.Model != "nova-2" {
		t.Fatalf("unexpected default deepgram model: %q", cfg.Deepgram.Model)
	}
	if cfg.Anthropic.MaxTokens != 2048 {
		t.Fatalf("unexpected default max tokens: %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.BaseDelayMS != 500 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg")
	t.Setenv("ANTHROPIC_API_KEY", "ant")
	t.Setenv("ANTHROPIC_MODEL", "claude-from-env")
	t.Setenv("DEEPGRAM_MODEL", "")
	t.Setenv("ANTHROPIC_BASE_URL", "")

	path := filepath.Join(t.TempDir(), "cleancut.yaml")
	data := `
server:
  addr: ":9000"
deepgram:
  model: nova-3
anthropic:
  model: claude-from-file
  max_tokens: 4096
paths:
  work: /tmp/work
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("file addr not applied: %q", cfg.Server.Addr)
	}
	if cfg.Deepgram.Model != "nova-3" {
		t.Fatalf("file deepgram model not applied: %q", cfg.Deepgram.Model)
	}
	if cfg.Anthropic.Model != "claude-from-env" {
		t.Fatalf("env should win over file: %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Fatalf("file max tokens not applied: %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Paths.Work != "/tmp/work" {
		t.Fatalf("file work path not applied: %q", cfg.Paths.Work)
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "ant")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for missing deepgram key")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
