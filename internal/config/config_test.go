package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FeedPageSize != DefaultConfig().FeedPageSize {
		t.Fatalf("FeedPageSize = %d, want %d", cfg.FeedPageSize, DefaultConfig().FeedPageSize)
	}
	if cfg.MaxMessagesPerSync != DefaultConfig().MaxMessagesPerSync {
		t.Fatalf("MaxMessagesPerSync = %d, want %d", cfg.MaxMessagesPerSync, DefaultConfig().MaxMessagesPerSync)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	raw := `{"feed_base_url": "https://feed.example.com", "feed_page_size": 50, "progress_every": 10}`
	if err := os.WriteFile(configPath, []byte(raw), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FeedBaseURL != "https://feed.example.com" {
		t.Errorf("FeedBaseURL = %q", cfg.FeedBaseURL)
	}
	if cfg.FeedPageSize != 50 {
		t.Errorf("FeedPageSize = %d, want 50", cfg.FeedPageSize)
	}
	if cfg.ProgressEvery != 10 {
		t.Errorf("ProgressEvery = %d, want 10", cfg.ProgressEvery)
	}
	// Unset keys keep defaults
	if cfg.RawTextMaxChars != 500 {
		t.Errorf("RawTextMaxChars = %d, want 500", cfg.RawTextMaxChars)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_TokenFromEnv(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("PREDSYNC_FEED_TOKEN", "env-token")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FeedToken != "env-token" {
		t.Errorf("FeedToken = %q, want %q", cfg.FeedToken, "env-token")
	}
}

func TestLoad_FileTokenBeatsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"feed_token": "file-token"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("PREDSYNC_FEED_TOKEN", "env-token")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FeedToken != "file-token" {
		t.Errorf("FeedToken = %q, want %q", cfg.FeedToken, "file-token")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["prediction_reset", "prediction_report"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "prediction_reset" {
		t.Errorf("DisabledTools[0] = %q", cfg.DisabledTools[0])
	}
}

func TestMerge_OverlayWins(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{FeedPageSize: 100, DisabledTools: []string{"prediction_reset"}}

	merged := Merge(base, overlay)

	if merged.FeedPageSize != 100 {
		t.Errorf("FeedPageSize = %d, want 100", merged.FeedPageSize)
	}
	if merged.MaxMessagesPerSync != base.MaxMessagesPerSync {
		t.Errorf("MaxMessagesPerSync = %d, want base %d", merged.MaxMessagesPerSync, base.MaxMessagesPerSync)
	}
	if len(merged.DisabledTools) != 1 {
		t.Errorf("DisabledTools = %v", merged.DisabledTools)
	}
}
