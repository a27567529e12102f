package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autosub/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if cfg.Cache.QuotaMiB != 100 {
		t.Errorf("expected default quota 100 MiB, got %d", cfg.Cache.QuotaMiB)
	}
	if cfg.Provider.Name != "mock" {
		t.Errorf("expected default provider mock, got %q", cfg.Provider.Name)
	}
	if cfg.Segmenter.MaxChars != 20 || cfg.Segmenter.PauseMS != 500 {
		t.Errorf("unexpected segmenter defaults: %+v", cfg.Segmenter)
	}
	if cfg.Alibaba.PollIntervalSeconds != 10 || cfg.Alibaba.PollMaxAttempts != 60 {
		t.Errorf("unexpected alibaba poll defaults: %+v", cfg.Alibaba)
	}
	if !cfg.Player.SubtitlesVisible {
		t.Error("expected subtitles visible by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[cache]
quota_mib = 10

[provider]
name = "Tencent"

[tencent]
app_id = "12345"
secret_id = "id"
secret_key = "key"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.QuotaMiB != 10 {
		t.Errorf("expected quota 10, got %d", cfg.Cache.QuotaMiB)
	}
	if cfg.Provider.Name != "tencent" {
		t.Errorf("expected normalized provider name, got %q", cfg.Provider.Name)
	}
	if cfg.CacheQuotaBytes() != 10*1024*1024 {
		t.Errorf("unexpected quota bytes: %d", cfg.CacheQuotaBytes())
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
[provider]
name = "whisper"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "yaml"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[provider]") {
		t.Error("expected provider section in sample config")
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
