package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Cache contains configuration for the local audio/transcript cache.
type Cache struct {
	QuotaMiB int `toml:"quota_mib"`
}

// Media contains configuration for audio stream acquisition.
type Media struct {
	Referer    string `toml:"referer"`
	UserAgent  string `toml:"user_agent"`
	MinFreeMiB int    `toml:"min_free_mib"`
}

// Provider selects the speech recognition backend.
type Provider struct {
	Name string `toml:"name"`
}

// Tencent contains credentials for the synchronous flash recognition API.
type Tencent struct {
	AppID      string `toml:"app_id"`
	SecretID   string `toml:"secret_id"`
	SecretKey  string `toml:"secret_key"`
	EngineType string `toml:"engine_type"`
}

// Alibaba contains credentials and polling settings for the file
// transcription API.
type Alibaba struct {
	AccessKeyID         string `toml:"access_key_id"`
	AccessKeySecret     string `toml:"access_key_secret"`
	AppKey              string `toml:"app_key"`
	Region              string `toml:"region"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	PollMaxAttempts     int    `toml:"poll_max_attempts"`
}

// Segmenter contains cue segmentation thresholds.
type Segmenter struct {
	MaxChars int `toml:"max_chars"`
	PauseMS  int `toml:"pause_ms"`
}

// Player contains playback synchronization settings.
type Player struct {
	TickIntervalMS   int  `toml:"tick_interval_ms"`
	SubtitlesVisible bool `toml:"subtitles_visible"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autosub.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - Cache: size quota for the audio/transcript cache
//   - Media: headers and preflight for the audio download
//   - Provider: which recognition backend to use
//   - Tencent / Alibaba: per-provider credentials
//   - Segmenter: cue segmentation thresholds
//   - Player: playback sync cadence and subtitle visibility
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Cache     Cache     `toml:"cache"`
	Media     Media     `toml:"media"`
	Provider  Provider  `toml:"provider"`
	Tencent   Tencent   `toml:"tencent"`
	Alibaba   Alibaba   `toml:"alibaba"`
	Segmenter Segmenter `toml:"segmenter"`
	Player    Player    `toml:"player"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autosub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autosub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheQuotaBytes returns the configured cache quota in bytes.
func (c *Config) CacheQuotaBytes() int64 {
	return int64(c.Cache.QuotaMiB) * 1024 * 1024
}

// MinFreeBytes returns the download preflight free-space floor in bytes.
func (c *Config) MinFreeBytes() uint64 {
	return uint64(c.Media.MinFreeMiB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
