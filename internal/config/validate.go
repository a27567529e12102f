package config

import "fmt"

var knownProviders = map[string]struct{}{
	"mock":    {},
	"tencent": {},
	"alibaba": {},
}

// Validate ensures the configuration is usable. Provider credentials are not
// required here; the transcription client checks them right before issuing a
// request so that cache-only commands work without any credentials.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProvider() error {
	if _, ok := knownProviders[c.Provider.Name]; !ok {
		return fmt.Errorf("provider.name: unknown provider %q (expected mock, tencent, or alibaba)", c.Provider.Name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
