package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Deepgram    DeepgramConfig    `yaml:"deepgram"`
	Anthropic   AnthropicConfig   `yaml:"anthropic"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Retry       RetryConfig       `yaml:"retry"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DeepgramConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey       string   `yaml:"-"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	MaxTokens    int      `yaml:"max_tokens"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type PathsConfig struct {
	Work    string `yaml:"work"`
	Outputs string `yaml:"outputs"`
	Input   string `yaml:"input"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type RetryConfig struct {
	Attempts    int `yaml:"attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads the YAML config at path (skipped when path is empty), overlays
// secrets from the environment, and applies defaults. API keys never come
// from the file; they are handed to the adapters through this struct so
// nothing reads ambient globals past this point.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Deepgram.APIKey = os.Getenv("DEEPGRAM_API_KEY")
	cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	if v := os.Getenv("DEEPGRAM_MODEL"); v != "" {
		cfg.Deepgram.Model = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		cfg.Anthropic.Model = v
	}
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		cfg.Anthropic.BaseURL = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Deepgram.Model == "" {
		c.Deepgram.Model = "nova-2"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-3-5-sonnet-latest"
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 2048
	}
	if c.Paths.Work == "" {
		c.Paths.Work = ".cache"
	}
	if c.Paths.Outputs == "" {
		c.Paths.Outputs = "outputs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.BaseDelayMS == 0 {
		c.Retry.BaseDelayMS = 500
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
}

// Validate checks the fields every mode requires. Mode-specific inputs
// (watch dir, server addr) are checked by their commands.
func (c *Config) Validate() error {
	if c.Deepgram.APIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required (set it in .env)")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required (set it in .env)")
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1")
	}
	return nil
}
