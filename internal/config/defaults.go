package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLogDir            = "~/.local/share/autosub/logs"
	defaultCacheQuotaMiB     = 100
	defaultReferer           = "https://www.bilibili.com/"
	defaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64; rv:131.0) Gecko/20100101 Firefox/131.0"
	defaultMinFreeMiB        = 512
	defaultProviderName      = "mock"
	defaultTencentEngine     = "16k_zh_video"
	defaultAlibabaRegion     = "cn-shanghai"
	defaultPollInterval      = 10
	defaultPollMaxAttempts   = 60
	defaultSegmenterMaxChars = 20
	defaultSegmenterPauseMS  = 500
	defaultTickIntervalMS    = 300
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Cache: Cache{
			QuotaMiB: defaultCacheQuotaMiB,
		},
		Media: Media{
			Referer:    defaultReferer,
			UserAgent:  defaultUserAgent,
			MinFreeMiB: defaultMinFreeMiB,
		},
		Provider: Provider{
			Name: defaultProviderName,
		},
		Tencent: Tencent{
			EngineType: defaultTencentEngine,
		},
		Alibaba: Alibaba{
			Region:              defaultAlibabaRegion,
			PollIntervalSeconds: defaultPollInterval,
			PollMaxAttempts:     defaultPollMaxAttempts,
		},
		Segmenter: Segmenter{
			MaxChars: defaultSegmenterMaxChars,
			PauseMS:  defaultSegmenterPauseMS,
		},
		Player: Player{
			TickIntervalMS:   defaultTickIntervalMS,
			SubtitlesVisible: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "autosub")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/autosub"
	}
	return filepath.Join(home, ".cache", "autosub")
}
