package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/dmitrijs2005/possync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL        string         `json:"server_url"`
	EditionID        string         `json:"edition_id"`
	RegisterNumber   int            `json:"register_number"`
	DatabasePath     string         `json:"database_path"`
	ProbeInterval    timex.Duration `json:"probe_interval"`
	ProbeTimeout     timex.Duration `json:"probe_timeout"`
	LinkInterval     timex.Duration `json:"link_interval"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	SyncTimeout      timex.Duration `json:"sync_timeout"`
	RecentSalesLimit int            `json:"recent_sales_limit"`
	RetentionPeriod  timex.Duration `json:"retention_period"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Fields missing from the file keep their current value.
func parseJson(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.EditionID, jc.EditionID)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RegisterNumber > 0 {
		cfg.RegisterNumber = jc.RegisterNumber
	}
	if jc.RecentSalesLimit > 0 {
		cfg.RecentSalesLimit = jc.RecentSalesLimit
	}
	setDuration(&cfg.ProbeInterval, jc.ProbeInterval)
	setDuration(&cfg.ProbeTimeout, jc.ProbeTimeout)
	setDuration(&cfg.LinkInterval, jc.LinkInterval)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.SyncTimeout, jc.SyncTimeout)
	setDuration(&cfg.RetentionPeriod, jc.RetentionPeriod)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
