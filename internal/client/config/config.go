package config

import "time"

// Config holds runtime settings for the BookmarkVault CLI.
//
// Fields:
//   - ServiceURL: base URL of the managed bookmark service.
//   - APIKey: the service's public (anonymous) API key.
//   - CallbackAddr: loopback address the OAuth callback listener binds to;
//     a ":0" port picks a free one.
//   - LoginTimeout: how long a browser sign-in attempt may take before the
//     flow is abandoned.
type Config struct {
	ServiceURL   string
	APIKey       string
	CallbackAddr string
	LoginTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServiceURL = "http://127.0.0.1:54321"
	c.APIKey = ""
	c.CallbackAddr = "127.0.0.1:0"
	c.LoginTimeout = 3 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
