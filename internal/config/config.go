// Package config loads daemon settings from yaml, json or toml files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Server holds HTTP daemon settings.
type Server struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
}

// Models holds backend binary/weights locations and load parameters.
type Models struct {
	// LlamaBin is the llama-server binary for the subprocess language model.
	LlamaBin string `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	// LanguageModelPath is the weights file for the language model.
	LanguageModelPath string `json:"language_model_path" yaml:"language_model_path" toml:"language_model_path"`
	// WhisperBin is the server binary for the transcription engine slot.
	WhisperBin string `json:"whisper_bin" yaml:"whisper_bin" toml:"whisper_bin"`
	// TranscriptionModelPath is the weights file for the transcription engine.
	TranscriptionModelPath string `json:"transcription_model_path" yaml:"transcription_model_path" toml:"transcription_model_path"`
	// InProcess selects the in-process go-llama.cpp runtime over a subprocess.
	InProcess bool `json:"in_process" yaml:"in_process" toml:"in_process"`

	ContextLength int `json:"context_length" yaml:"context_length" toml:"context_length"`
	Threads       int `json:"threads" yaml:"threads" toml:"threads"`
	NGPULayers    int `json:"n_gpu_layers" yaml:"n_gpu_layers" toml:"n_gpu_layers"`
}

// Correction holds orchestration tunables.
type Correction struct {
	Level            string  `json:"level" yaml:"level" toml:"level"`
	Temperature      float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens        int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	OverlapSentences int     `json:"overlap_sentences" yaml:"overlap_sentences" toml:"overlap_sentences"`
	BatchSize        int     `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	TimeoutSeconds   float64 `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	MaxRetries       int     `json:"max_retries" yaml:"max_retries" toml:"max_retries"`
	RetryDelay       float64 `json:"retry_delay" yaml:"retry_delay" toml:"retry_delay"`
	// FailureRatio above which a batch is redone rule-based (0..1).
	FailureRatio float64 `json:"failure_ratio" yaml:"failure_ratio" toml:"failure_ratio"`
}

// Resource holds arbiter tunables.
type Resource struct {
	MemoryThresholdGB float64 `json:"memory_threshold_gb" yaml:"memory_threshold_gb" toml:"memory_threshold_gb"`
	MemoryBudgetGB    float64 `json:"memory_budget_gb" yaml:"memory_budget_gb" toml:"memory_budget_gb"`
	CleanupDelayMS    int     `json:"cleanup_delay_ms" yaml:"cleanup_delay_ms" toml:"cleanup_delay_ms"`
	MonitorIntervalS  int     `json:"monitor_interval_s" yaml:"monitor_interval_s" toml:"monitor_interval_s"`
}

// Config holds runtime parameters for the daemon and CLI.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Server     Server     `json:"server" yaml:"server" toml:"server"`
	Models     Models     `json:"models" yaml:"models" toml:"models"`
	Correction Correction `json:"correction" yaml:"correction" toml:"correction"`
	Resource   Resource   `json:"resource" yaml:"resource" toml:"resource"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields with working defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8091"
	}
	if c.Models.ContextLength <= 0 {
		c.Models.ContextLength = 2048
	}
	if c.Correction.Level == "" {
		c.Correction.Level = "basic"
	}
	if c.Correction.Temperature <= 0 {
		c.Correction.Temperature = 0.3
	}
	if c.Correction.MaxTokens <= 0 {
		c.Correction.MaxTokens = 512
	}
	if c.Correction.OverlapSentences <= 0 {
		c.Correction.OverlapSentences = 1
	}
	if c.Correction.BatchSize <= 0 {
		c.Correction.BatchSize = 4
	}
	if c.Correction.TimeoutSeconds <= 0 {
		c.Correction.TimeoutSeconds = 60
	}
	if c.Correction.MaxRetries <= 0 {
		c.Correction.MaxRetries = 2
	}
	if c.Correction.RetryDelay <= 0 {
		c.Correction.RetryDelay = 1.0
	}
	if c.Correction.FailureRatio <= 0 {
		c.Correction.FailureRatio = 0.5
	}
	if c.Resource.MemoryThresholdGB <= 0 {
		c.Resource.MemoryThresholdGB = 6.0
	}
	if c.Resource.CleanupDelayMS <= 0 {
		c.Resource.CleanupDelayMS = 2500
	}
	if c.Resource.MonitorIntervalS <= 0 {
		c.Resource.MonitorIntervalS = 10
	}
}

// Timeout returns the per-chunk timeout as a duration.
func (c Correction) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// RetryBackoff returns the initial retry delay as a duration.
func (c Correction) RetryBackoff() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// CleanupDelay returns the swap cleanup delay as a duration.
func (r Resource) CleanupDelay() time.Duration {
	return time.Duration(r.CleanupDelayMS) * time.Millisecond
}

// MonitorInterval returns the monitor sampling interval as a duration.
func (r Resource) MonitorInterval() time.Duration {
	return time.Duration(r.MonitorIntervalS) * time.Second
}
