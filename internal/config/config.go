package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources    Sources    `yaml:"sources"`
	Dedup      Dedup      `yaml:"dedup"`
	Classifier Classifier `yaml:"classifier"`
	Fetch      Fetch      `yaml:"fetch"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Schedule   Schedule   `yaml:"schedule"`
}

type Sources struct {
	Feeds      []Feed `yaml:"feeds"`
	MaxPerFeed int    `yaml:"max_per_feed"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Dedup struct {
	// SimilarityThreshold is on a 0-100 scale; normalized titles scoring
	// at or above it against a kept item are duplicates.
	SimilarityThreshold int `yaml:"similarity_threshold"`
}

type Classifier struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIKeyEnv    string `yaml:"openai_api_key_env"`
	AnthropicModel  string `yaml:"anthropic_model"`
	AnthropicKeyEnv string `yaml:"anthropic_api_key_env"`
	MaxTokens       int    `yaml:"max_tokens"`

	Concurrency    int           `yaml:"concurrency"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RequestsPerSecond caps outbound calls to the classification service.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type Fetch struct {
	BackfillSummaries bool          `yaml:"backfill_summaries"`
	Timeout           time.Duration `yaml:"timeout"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Schedule struct {
	Cron string `yaml:"cron"`
}

// ConfigDir returns the XDG config directory for newscurator.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newscurator")
}

// DataDir returns the XDG data directory for newscurator.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newscurator")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newscurator/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newscurator init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{MaxPerFeed: 50},
		Dedup:   Dedup{SimilarityThreshold: 90},
		Classifier: Classifier{
			Provider:          "ollama",
			Model:             "qwen2.5:7b",
			OllamaURL:         "http://localhost:11434",
			OpenAIModel:       "gpt-4o-mini",
			OpenAIKeyEnv:      "OPENAI_API_KEY",
			AnthropicModel:    "claude-3-5-haiku-latest",
			AnthropicKeyEnv:   "ANTHROPIC_API_KEY",
			MaxTokens:         512,
			Concurrency:       3,
			MaxAttempts:       4,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
			RequestTimeout:    60 * time.Second,
			RequestsPerSecond: 2,
		},
		Fetch: Fetch{
			BackfillSummaries: true,
			Timeout:           15 * time.Second,
		},
		Server:   Server{Port: 8000},
		Schedule: Schedule{Cron: "0 7 * * *"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Dedup.SimilarityThreshold < 0 || c.Dedup.SimilarityThreshold > 100 {
		return fmt.Errorf("dedup.similarity_threshold must be 0-100, got %d", c.Dedup.SimilarityThreshold)
	}
	if c.Classifier.Concurrency < 1 {
		return fmt.Errorf("classifier.concurrency must be at least 1, got %d", c.Classifier.Concurrency)
	}
	if c.Classifier.MaxAttempts < 1 {
		return fmt.Errorf("classifier.max_attempts must be at least 1, got %d", c.Classifier.MaxAttempts)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
