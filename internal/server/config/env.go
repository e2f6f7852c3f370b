package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. POSSYNC_HTTP_ADDR.
const EnvPrefix = "POSSYNC"

// parseEnv overlays Config with POSSYNC_* environment variables. Unset
// variables leave the current value untouched.
func parseEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to process env config: %w", err)
	}
	return nil
}
