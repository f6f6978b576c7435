package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}

	if cfg.Classifier.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Classifier.Provider)
	}

	if cfg.Dedup.SimilarityThreshold != 90 {
		t.Errorf("expected threshold 90, got %d", cfg.Dedup.SimilarityThreshold)
	}

	if cfg.Classifier.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Classifier.Concurrency)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
classifier:
  provider: openai
  max_attempts: 6
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Classifier.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Classifier.Provider)
	}
	if cfg.Classifier.MaxAttempts != 6 {
		t.Errorf("expected max_attempts 6, got %d", cfg.Classifier.MaxAttempts)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Classifier.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Classifier.OllamaURL)
	}
	if cfg.Classifier.InitialBackoff != time.Second {
		t.Errorf("expected default initial_backoff 1s, got %v", cfg.Classifier.InitialBackoff)
	}
}

func TestParseRejectsBadThreshold(t *testing.T) {
	if _, err := parse([]byte("dedup:\n  similarity_threshold: 150\n")); err == nil {
		t.Error("expected error for threshold > 100")
	}
}

func TestParseRejectsZeroConcurrency(t *testing.T) {
	if _, err := parse([]byte("classifier:\n  concurrency: 0\n")); err == nil {
		t.Error("expected error for zero concurrency")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
