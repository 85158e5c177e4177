package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// FeedBaseURL is the base URL of the channel feed API.
	FeedBaseURL string `json:"feed_base_url,omitempty"`

	// FeedToken authenticates against the feed. If empty, the
	// PREDSYNC_FEED_TOKEN environment variable is used instead so the
	// token never has to live in the config file.
	FeedToken string `json:"feed_token,omitempty"`

	// FeedPageSize is how many messages to request per feed page.
	FeedPageSize int `json:"feed_page_size,omitempty"`

	// MaxMessagesPerSync caps how many messages a single sync run will
	// scan. The feed is unbounded; the cap turns an open-ended run into
	// one with predictable worst-case cost. Catching up after a long gap
	// may take several incremental runs, which is fine: runs are
	// idempotent and cheap to repeat.
	MaxMessagesPerSync int `json:"max_messages_per_sync,omitempty"`

	// ProgressEvery is how many new records between progress notifications.
	ProgressEvery int `json:"progress_every,omitempty"`

	// RawTextMaxChars bounds the stored raw_text copy of each message
	// (runes, not bytes).
	RawTextMaxChars int `json:"raw_text_max_chars,omitempty"`

	// FeedTimeoutSeconds is the per-request timeout for feed HTTP calls.
	FeedTimeoutSeconds int `json:"feed_timeout_seconds,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are ignored at registration time.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FeedPageSize:       500,
		MaxMessagesPerSync: 50000,
		ProgressEvery:      100,
		RawTextMaxChars:    500,
		FeedTimeoutSeconds: 30,
	}
}

// Load loads configuration from baseDir/config.json, merged over defaults.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.predsync.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)

	if merged.FeedToken == "" {
		merged.FeedToken = strings.TrimSpace(os.Getenv("PREDSYNC_FEED_TOKEN"))
	}

	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.FeedBaseURL = overlay.FeedBaseURL
	if result.FeedBaseURL == "" {
		result.FeedBaseURL = base.FeedBaseURL
	}

	result.FeedToken = overlay.FeedToken
	if result.FeedToken == "" {
		result.FeedToken = base.FeedToken
	}

	result.FeedPageSize = overlay.FeedPageSize
	if result.FeedPageSize == 0 {
		result.FeedPageSize = base.FeedPageSize
	}

	result.MaxMessagesPerSync = overlay.MaxMessagesPerSync
	if result.MaxMessagesPerSync == 0 {
		result.MaxMessagesPerSync = base.MaxMessagesPerSync
	}

	result.ProgressEvery = overlay.ProgressEvery
	if result.ProgressEvery == 0 {
		result.ProgressEvery = base.ProgressEvery
	}

	result.RawTextMaxChars = overlay.RawTextMaxChars
	if result.RawTextMaxChars == 0 {
		result.RawTextMaxChars = base.RawTextMaxChars
	}

	result.FeedTimeoutSeconds = overlay.FeedTimeoutSeconds
	if result.FeedTimeoutSeconds == 0 {
		result.FeedTimeoutSeconds = base.FeedTimeoutSeconds
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
