package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `
server:
  addr: :9999
models:
  llama_bin: /opt/llama-server
  language_model_path: /models/lm.gguf
  context_length: 4096
correction:
  level: formal
  overlap_sentences: 2
  timeout_seconds: 30
resource:
  memory_threshold_gb: 6.5
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" || cfg.Models.LlamaBin != "/opt/llama-server" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Models.ContextLength != 4096 || cfg.Correction.Level != "formal" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Correction.OverlapSentences != 2 || cfg.Resource.MemoryThresholdGB != 6.5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json",
		`{"server":{"addr":":7070"},"correction":{"level":"advanced","max_retries":5}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7070" || cfg.Correction.Level != "advanced" || cfg.Correction.MaxRetries != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", `
[server]
addr = ":8081"
[models]
in_process = true
[correction]
temperature = 0.7
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8081" || !cfg.Models.InProcess || cfg.Correction.Temperature != 0.7 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil {
		t.Fatalf("expected error on missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Server.Addr == "" {
		t.Fatalf("addr default missing")
	}
	if cfg.Correction.Level != "basic" {
		t.Fatalf("level default = %q", cfg.Correction.Level)
	}
	if cfg.Correction.BatchSize != 4 {
		t.Fatalf("batch size default = %d", cfg.Correction.BatchSize)
	}
	if cfg.Resource.CleanupDelay().Milliseconds() != 2500 {
		t.Fatalf("cleanup delay default = %v", cfg.Resource.CleanupDelay())
	}
	if cfg.Correction.FailureRatio != 0.5 {
		t.Fatalf("failure ratio default = %v", cfg.Correction.FailureRatio)
	}
}

func TestApplyDefaultsKeepsExplicit(t *testing.T) {
	cfg := Config{}
	cfg.Correction.Level = "formal"
	cfg.Correction.TimeoutSeconds = 10
	cfg.ApplyDefaults()
	if cfg.Correction.Level != "formal" || cfg.Correction.Timeout().Seconds() != 10 {
		t.Fatalf("explicit values were overwritten: %+v", cfg.Correction)
	}
}
