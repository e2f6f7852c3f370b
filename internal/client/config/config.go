package config

import "time"

// Config holds runtime settings for the register client.
//
// Units: all intervals and timeouts are time.Duration values.
type Config struct {
	ServerURL        string
	EditionID        string
	RegisterNumber   int
	DatabasePath     string
	ProbeInterval    time.Duration
	ProbeTimeout     time.Duration
	LinkInterval     time.Duration
	RequestTimeout   time.Duration
	SyncTimeout      time.Duration
	RecentSalesLimit int
	RetentionPeriod  time.Duration
	LogLevel         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api"
	c.RegisterNumber = 1
	c.DatabasePath = "register.db"
	c.ProbeInterval = 10 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.LinkInterval = 2 * time.Second
	c.RequestTimeout = 5 * time.Second
	c.SyncTimeout = 60 * time.Second
	c.RecentSalesLimit = 50
	c.RetentionPeriod = 72 * time.Hour
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
