package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/dmitrijs2005/possync/internal/timex"
)

// JsonConfig is a DTO used only for reading JSON configuration files.
// Durations accept "10s" as well as integer nanoseconds.
type JsonConfig struct {
	HTTPAddr         string         `json:"http_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	CORSAllowOrigins []string       `json:"cors_allow_origins"`
	ArchiveBucket    string         `json:"archive_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
}

// parseJson loads the file named by -c or -config, if any, and copies every
// non-empty field into cfg.
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

	for dst, v := range map[*string]string{
		&cfg.HTTPAddr:       jc.HTTPAddr,
		&cfg.DatabaseDSN:    jc.DatabaseDSN,
		&cfg.ArchiveBucket:  jc.ArchiveBucket,
		&cfg.S3Region:       jc.S3Region,
		&cfg.S3BaseEndpoint: jc.S3BaseEndpoint,
		&cfg.S3AccessKey:    jc.S3AccessKey,
		&cfg.S3SecretKey:    jc.S3SecretKey,
		&cfg.LogLevel:       jc.LogLevel,
		&cfg.LogFormat:      jc.LogFormat,
	} {
		if v != "" {
			*dst = v
		}
	}
	if len(jc.CORSAllowOrigins) > 0 {
		cfg.CORSAllowOrigins = jc.CORSAllowOrigins
	}
	if jc.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	return nil
}
