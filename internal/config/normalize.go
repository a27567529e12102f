package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCache()
	c.normalizeMedia()
	c.normalizeProvider()
	c.normalizeAlibaba()
	c.normalizeSegmenter()
	c.normalizePlayer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCache() {
	if c.Cache.QuotaMiB <= 0 {
		c.Cache.QuotaMiB = defaultCacheQuotaMiB
	}
}

func (c *Config) normalizeMedia() {
	if strings.TrimSpace(c.Media.Referer) == "" {
		c.Media.Referer = defaultReferer
	}
	if strings.TrimSpace(c.Media.UserAgent) == "" {
		c.Media.UserAgent = defaultUserAgent
	}
	if c.Media.MinFreeMiB < 0 {
		c.Media.MinFreeMiB = 0
	}
}

func (c *Config) normalizeProvider() {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Name == "" {
		c.Provider.Name = defaultProviderName
	}
	if strings.TrimSpace(c.Tencent.EngineType) == "" {
		c.Tencent.EngineType = defaultTencentEngine
	}
}

func (c *Config) normalizeAlibaba() {
	if strings.TrimSpace(c.Alibaba.Region) == "" {
		c.Alibaba.Region = defaultAlibabaRegion
	}
	if c.Alibaba.PollIntervalSeconds <= 0 {
		c.Alibaba.PollIntervalSeconds = defaultPollInterval
	}
	if c.Alibaba.PollMaxAttempts <= 0 {
		c.Alibaba.PollMaxAttempts = defaultPollMaxAttempts
	}
}

func (c *Config) normalizeSegmenter() {
	if c.Segmenter.MaxChars <= 0 {
		c.Segmenter.MaxChars = defaultSegmenterMaxChars
	}
	if c.Segmenter.PauseMS <= 0 {
		c.Segmenter.PauseMS = defaultSegmenterPauseMS
	}
}

func (c *Config) normalizePlayer() {
	if c.Player.TickIntervalMS <= 0 {
		c.Player.TickIntervalMS = defaultTickIntervalMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
